package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEmit_DeliversToSubscriber(t *testing.T) {
	b := NewBus(time.Now())
	ch, unsub := b.Subscribe(4)
	defer unsub()

	b.Emit(1, KindFrameStart, FrameStart{Dt: 0.1, FrontierSize: 2})

	select {
	case ev := <-ch:
		require.Equal(t, KindFrameStart, ev.Kind)
		require.Equal(t, uint64(1), ev.Seq)
	default:
		t.Fatal("expected event to be delivered")
	}
}

func TestEmit_SeqMonotonicallyIncreases(t *testing.T) {
	b := NewBus(time.Now())
	ch, unsub := b.Subscribe(4)
	defer unsub()

	b.Emit(1, KindFrameStart, FrameStart{})
	b.Emit(1, KindFrameEnd, FrameEnd{})

	first := <-ch
	second := <-ch
	require.Less(t, first.Seq, second.Seq)
}

func TestEmit_NonCriticalDroppedWhenBufferFull(t *testing.T) {
	b := NewBus(time.Now())
	_, unsub := b.Subscribe(1)
	defer unsub()

	// KindStrideExec is non-critical; fill the buffer then overflow it.
	b.Emit(1, KindStrideExec, StrideExec{})
	b.Emit(1, KindStrideExec, StrideExec{})

	require.Equal(t, int64(1), b.DroppedCount())
}

func TestEmit_CriticalEvictsOldestRatherThanDropping(t *testing.T) {
	b := NewBus(time.Now())
	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.Emit(1, KindStrideExec, StrideExec{})   // fills the buffer
	b.Emit(1, KindFrameEnd, FrameEnd{})        // critical; should evict and take the slot

	ev := <-ch
	require.Equal(t, KindFrameEnd, ev.Kind)
}

func TestSubscribe_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(time.Now())
	ch, unsub := b.Subscribe(1)
	unsub()

	_, ok := <-ch
	require.False(t, ok)
}

func TestEmit_NoSubscribersIsNoop(t *testing.T) {
	b := NewBus(time.Now())
	ev := b.Emit(1, KindFrameStart, FrameStart{})
	require.Equal(t, uint64(1), ev.Seq)
}
