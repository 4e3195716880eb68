package graphstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/graphmind/graphmind/internal/bitemporal"
	"github.com/graphmind/graphmind/internal/clog"
	"github.com/graphmind/graphmind/internal/errs"
)

// CreateNode creates the first version of a logical node.
// Fails with DuplicateLogical if a currently-known version already exists.
func (s *Store) CreateNode(logical, nodeType, description string, meta map[string]any, validFrom *time.Time) (string, error) {
	unlock := s.locks.Lock(logical)
	defer unlock()

	log := clog.For(clog.CategoryGraphStore)

	existing, err := s.liveNodeTx(s.db, logical)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", &errs.DuplicateLogical{Logical: logical}
	}

	now := time.Now().UTC()
	vf := now
	retroactive := false
	if validFrom != nil {
		vf = *validFrom
		retroactive = vf.Before(now)
	}
	if err := bitemporal.CheckInterval(logical, "valid", vf, nil); err != nil {
		return "", err
	}

	versionID := uuid.NewString()
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshaling node meta: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO node_versions
		(version_id, logical_id, type, description, meta, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?, NULL, NULL, NULL, 0)`,
		versionID, logical, nodeType, description, string(metaJSON), vf.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		log.Sugar().Errorw("create node failed", "logical", logical, "error", err)
		return "", fmt.Errorf("creating node %q: %w", logical, err)
	}

	log.Sugar().Debugw("node created", "logical", logical, "version", versionID, "retroactive", retroactive)
	return versionID, nil
}

// Retroactive reports whether the named version was created with a
// valid_from preceding its known_from.
func (s *Store) Retroactive(versionID string) (bool, error) {
	var validFrom, knownFrom string
	err := s.db.QueryRow(`SELECT valid_from, known_from FROM node_versions WHERE version_id = ?`, versionID).Scan(&validFrom, &knownFrom)
	if err != nil {
		return false, err
	}
	vf, err := time.Parse(time.RFC3339Nano, validFrom)
	if err != nil {
		return false, err
	}
	kf, err := time.Parse(time.RFC3339Nano, knownFrom)
	if err != nil {
		return false, err
	}
	return vf.Before(kf), nil
}

// SupersedeNode implements the bitemporal supersession algorithm: close the
// current version's known_to, insert a fresh version chained to it. Atomic
// across the (old, new) pair via a single transaction.
func (s *Store) SupersedeNode(logical, newDescription string, newValidFrom *time.Time) (string, error) {
	unlock := s.locks.Lock(logical)
	defer unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning supersession tx: %w", err)
	}
	defer tx.Rollback()

	v0, err := s.liveNodeTx(tx, logical)
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
	// A valid_from earlier than the prior version's is a retroactive
	// correction and is allowed; only known_from > known_to is rejected.
	if err := bitemporal.CheckInterval(logical, "known", v0.KnownFrom, &now); err != nil {
		return "", err
	}

	newVersionID := uuid.NewString()
	metaJSON, _ := json.Marshal(v0.Meta)

	if _, err := tx.Exec(`UPDATE node_versions SET known_to = ?, superseded_by = ? WHERE version_id = ?`,
		now.Format(time.RFC3339Nano), newVersionID, v0.VersionID); err != nil {
		return "", fmt.Errorf("closing old node version: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO node_versions
		(version_id, logical_id, type, description, meta, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?, NULL, ?, NULL, ?)`,
		newVersionID, logical, v0.Type, newDescription, string(metaJSON), vf.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano), v0.VersionID, v0.VersionSeq+1); err != nil {
		return "", fmt.Errorf("inserting new node version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing supersession: %w", err)
	}

	clog.For(clog.CategoryGraphStore).Sugar().Debugw("node superseded", "logical", logical, "old", v0.VersionID, "new", newVersionID)
	return newVersionID, nil
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

func (s *Store) liveNodeTx(q querier, logical string) (*NodeVersion, error) {
	row := q.QueryRow(`SELECT version_id, logical_id, type, description, meta, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq
		FROM node_versions WHERE logical_id = ? AND known_to IS NULL`, logical)
	v, err := scanNodeVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// LiveNode returns the current (known_to = ⊥) version of a logical node, or
// NotFound if none exists.
func (s *Store) LiveNode(logical string) (*NodeVersion, error) {
	v, err := s.liveNodeTx(s.db, logical)
	if err != nil {
		return nil, fmt.Errorf("looking up live node %q: %w", logical, err)
	}
	if v == nil {
		return nil, &errs.NotFound{Logical: logical}
	}
	return v, nil
}

// AsOfNode resolves the version of logical active at instant on the given
// axis.
func (s *Store) AsOfNode(logical string, axis Axis, instant time.Time) (*NodeVersion, error) {
	t := instant.Format(time.RFC3339Nano)
	var row *sql.Row
	switch axis {
	case AxisReality:
		row = s.db.QueryRow(`SELECT version_id, logical_id, type, description, meta, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq
			FROM node_versions
			WHERE logical_id = ? AND valid_from <= ? AND (valid_to IS NULL OR valid_to > ?)
			ORDER BY known_from DESC LIMIT 1`, logical, t, t)
	case AxisKnowledge:
		row = s.db.QueryRow(`SELECT version_id, logical_id, type, description, meta, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq
			FROM node_versions
			WHERE logical_id = ? AND known_from <= ? AND (known_to IS NULL OR known_to > ?)
			ORDER BY known_from DESC LIMIT 1`, logical, t, t)
	default:
		return nil, fmt.Errorf("unknown axis %d", axis)
	}
	v, err := scanNodeVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("as-of node query: %w", err)
	}
	return v, nil
}

// History returns every version of logical, oldest-to-newest.
func (s *Store) History(logical string) ([]*NodeVersion, error) {
	rows, err := s.db.Query(`SELECT version_id, logical_id, type, description, meta, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq
		FROM node_versions WHERE logical_id = ? ORDER BY version_seq ASC`, logical)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()

	var out []*NodeVersion
	for rows.Next() {
		v, err := scanNodeVersionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// IterateLiveNodes returns every logical node's current version. The tick
// loop filters this against runtime energies to derive the active frontier
// — energies are not stored here, so graphstore only ever hands back the live
// population, never the activation state.
func (s *Store) IterateLiveNodes() ([]*NodeVersion, error) {
	rows, err := s.db.Query(`SELECT version_id, logical_id, type, description, meta, valid_from, valid_to, known_from, known_to, supersedes, superseded_by, version_seq
		FROM node_versions WHERE known_to IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("iterate live nodes: %w", err)
	}
	defer rows.Close()

	var out []*NodeVersion
	for rows.Next() {
		v, err := scanNodeVersionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNodeVersion(row *sql.Row) (*NodeVersion, error) {
	return scanNodeVersionGeneric(row)
}

func scanNodeVersionRows(rows *sql.Rows) (*NodeVersion, error) {
	return scanNodeVersionGeneric(rows)
}

func scanNodeVersionGeneric(s rowScanner) (*NodeVersion, error) {
	var v NodeVersion
	var metaJSON, validFrom, knownFrom string
	var validTo, knownTo, supersedes, supersededBy sql.NullString

	if err := s.Scan(&v.VersionID, &v.LogicalID, &v.Type, &v.Description, &metaJSON,
		&validFrom, &validTo, &knownFrom, &knownTo, &supersedes, &supersededBy, &v.VersionSeq); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(metaJSON), &v.Meta); err != nil {
		return nil, fmt.Errorf("unmarshaling node meta: %w", err)
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
