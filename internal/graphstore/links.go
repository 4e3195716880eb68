package graphstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/graphmind/graphmind/internal/clog"
	"github.com/graphmind/graphmind/internal/errs"
)

// LinkLogicalID derives the stable logical identifier for an edge from its
// (src, dst, type) triple. A single logical edge may still be superseded
// (weight/confidence corrections) without changing this identity.
func LinkLogicalID(src, dst, linkType string) string {
	return src + "->" + dst + "#" + linkType
}

// CreateLink creates the first version of a logical link.
func (s *Store) CreateLink(src, dst, linkType string, weightLog, confidence float64, validFrom *time.Time) (string, error) {
	logical := LinkLogicalID(src, dst, linkType)
	unlock := s.locks.Lock(logical)
	defer unlock()

	existing, err := s.liveLinkTx(s.db, logical)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", &errs.DuplicateLogical{Logical: logical}
	}

	now := time.Now().UTC()
	vf := now
	if validFrom != nil {
		vf = *validFrom
	}

	versionID := uuid.NewString()
	_, err = s.db.Exec(`INSERT INTO link_versions
		(version_id, logical_id, src_logical, dst_logical, type, weight_log, confidence, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, NULL, NULL, NULL, 0)`,
		versionID, logical, src, dst, linkType, weightLog, confidence, vf.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("creating link %q: %w", logical, err)
	}

	clog.For(clog.CategoryGraphStore).Sugar().Debugw("link created", "logical", logical, "version", versionID)
	return versionID, nil
}

// SupersedeLink closes the current link version and inserts a corrected
// one, atomic across the (old, new) pair.
func (s *Store) SupersedeLink(src, dst, linkType string, newWeightLog, newConfidence float64, newValidFrom *time.Time) (string, error) {
	logical := LinkLogicalID(src, dst, linkType)
	unlock := s.locks.Lock(logical)
	defer unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning link supersession tx: %w", err)
	}
	defer tx.Rollback()

	v0, err := s.liveLinkTx(tx, logical)
	if err != nil {
		return "", err
	}
	if v0 == nil {
		return "", &errs.NotFound{Logical: logical}
	}

	now := time.Now().UTC()
	vf := now
	if newValidFrom != nil {
		vf = *newValidFrom
	}

	newVersionID := uuid.NewString()

	if _, err := tx.Exec(`UPDATE link_versions SET known_to = ?, superseded_by = ? WHERE version_id = ?`,
		now.Format(time.RFC3339Nano), newVersionID, v0.VersionID); err != nil {
		return "", fmt.Errorf("closing old link version: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO link_versions
		(version_id, logical_id, src_logical, dst_logical, type, weight_log, confidence, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, NULL, ?, NULL, ?)`,
		newVersionID, logical, src, dst, linkType, newWeightLog, newConfidence, vf.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano), v0.VersionID, v0.VersionSeq+1); err != nil {
		return "", fmt.Errorf("inserting new link version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing link supersession: %w", err)
	}

	return newVersionID, nil
}

func (s *Store) liveLinkTx(q querier, logical string) (*LinkVersion, error) {
	row := q.QueryRow(`SELECT version_id, logical_id, src_logical, dst_logical, type, weight_log, confidence, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq
		FROM link_versions WHERE logical_id = ? AND known_to IS NULL`, logical)
	v, err := scanLinkVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// AdjacencyOut returns the live outgoing links of a logical node whose
// endpoints currently resolve to live node versions.
func (s *Store) AdjacencyOut(logical string) ([]*LinkVersion, error) {
	rows, err := s.db.Query(`
		SELECT l.version_id, l.logical_id, l.src_logical, l.dst_logical, l.type, l.weight_log, l.confidence,
		       l.valid_from, l.valid_to, l.known_from, l.known_to, l.supersedes, l.superseded_by, l.version_seq
		FROM link_versions l
		WHERE l.src_logical = ? AND l.known_to IS NULL
		  AND EXISTS (SELECT 1 FROM node_versions n WHERE n.logical_id = l.src_logical AND n.known_to IS NULL)
		  AND EXISTS (SELECT 1 FROM node_versions n WHERE n.logical_id = l.dst_logical AND n.known_to IS NULL)`, logical)
	if err != nil {
		return nil, fmt.Errorf("adjacency_out query: %w", err)
	}
	defer rows.Close()

	var out []*LinkVersion
	for rows.Next() {
		v, err := scanLinkVersionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// AsOfLink resolves the link version active at instant on the given axis.
func (s *Store) AsOfLink(src, dst, linkType string, axis Axis, instant time.Time) (*LinkVersion, error) {
	logical := LinkLogicalID(src, dst, linkType)
	t := instant.Format(time.RFC3339Nano)
	var row *sql.Row
	switch axis {
	case AxisReality:
		row = s.db.QueryRow(`SELECT version_id, logical_id, src_logical, dst_logical, type, weight_log, confidence, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq
			FROM link_versions WHERE logical_id = ? AND valid_from <= ? AND (valid_to IS NULL OR valid_to > ?)
			ORDER BY known_from DESC LIMIT 1`, logical, t, t)
	case AxisKnowledge:
		row = s.db.QueryRow(`SELECT version_id, logical_id, src_logical, dst_logical, type, weight_log, confidence, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq
			FROM link_versions WHERE logical_id = ? AND known_from <= ? AND (known_to IS NULL OR known_to > ?)
			ORDER BY known_from DESC LIMIT 1`, logical, t, t)
	default:
		return nil, fmt.Errorf("unknown axis %d", axis)
	}
	v, err := scanLinkVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// LinkHistory returns every version of a logical link, oldest-to-newest.
func (s *Store) LinkHistory(src, dst, linkType string) ([]*LinkVersion, error) {
	logical := LinkLogicalID(src, dst, linkType)
	rows, err := s.db.Query(`SELECT version_id, logical_id, src_logical, dst_logical, type, weight_log, confidence, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq
		FROM link_versions WHERE logical_id = ? ORDER BY version_seq ASC`, logical)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LinkVersion
	for rows.Next() {
		v, err := scanLinkVersionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// AllLiveLinks returns every currently live link, used by the tick loop's
// weight-decay pass to find the link types present.
func (s *Store) AllLiveLinks() ([]*LinkVersion, error) {
	rows, err := s.db.Query(`SELECT version_id, logical_id, src_logical, dst_logical, type, weight_log, confidence, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq
		FROM link_versions WHERE known_to IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LinkVersion
	for rows.Next() {
		v, err := scanLinkVersionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanLinkVersion(row *sql.Row) (*LinkVersion, error)   { return scanLinkVersionGeneric(row) }
func scanLinkVersionRows(rows *sql.Rows) (*LinkVersion, error) { return scanLinkVersionGeneric(rows) }

func scanLinkVersionGeneric(s rowScanner) (*LinkVersion, error) {
	var v LinkVersion
	var validFrom, knownFrom string
	var validTo, knownTo, supersedes, supersededBy sql.NullString

	if err := s.Scan(&v.VersionID, &v.LogicalID, &v.SrcLogical, &v.DstLogical, &v.Type, &v.WeightLog, &v.Confidence,
		&validFrom, &validTo, &knownFrom, &knownTo, &supersedes, &supersededBy, &v.VersionSeq); err != nil {
		return nil, err
	}

	var err error
	if v.ValidFrom, err = time.Parse(time.RFC3339Nano, validFrom); err != nil {
		return nil, err
	}
	if v.KnownFrom, err = time.Parse(time.RFC3339Nano, knownFrom); err != nil {
		return nil, err
	}
	if validTo.Valid {
		t, err := time.Parse(time.RFC3339Nano, validTo.String)
		if err != nil {
			return nil, err
		}
		v.ValidTo = &t
	}
	if knownTo.Valid {
		t, err := time.Parse(time.RFC3339Nano, knownTo.String)
		if err != nil {
			return nil, err
		}
		v.KnownTo = &t
	}
	if supersedes.Valid {
		s := supersedes.String
		v.Supersedes = &s
	}
	if supersededBy.Valid {
		s := supersededBy.String
		v.SupersededBy = &s
	}

	return &v, nil
}
