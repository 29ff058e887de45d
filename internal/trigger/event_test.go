package trigger

import (
	"sync"
	"testing"

	"github.com/cbegin/reorch-go/internal/drum"
	"github.com/cbegin/reorch-go/internal/param"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetKind(t *testing.T) {
	t.Parallel()
	require.Equal(t, Percussive, Hit(0, drum.Snare, drum.Tone{}).Kind)
	require.Equal(t, NoteOn, On(0, 1, 440).Kind)
	require.Equal(t, NoteOff, Off(0, 1).Kind)
	ev := Set(1.5, param.Cutoff, 800)
	require.Equal(t, Param, ev.Kind)
	require.Equal(t, "1.500 cutoff=800", ev.String())
}

func TestIDsAreConsecutiveAndUnique(t *testing.T) {
	t.Parallel()
	var ids IDs
	require.Equal(t, 1, ids.NewVoices(1))
	require.Equal(t, 2, ids.NewVoices(3))
	require.Equal(t, 5, ids.NewVoices(0))

	var mu sync.Mutex
	seen := map[int]bool{}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := ids.NewVoices(1)
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, 800)
}

func TestRecorderCollects(t *testing.T) {
	t.Parallel()
	r := &Recorder{}
	var s Sink = r
	s.Send(On(0, s.NewVoices(1), 220))
	require.Len(t, r.Events, 1)
	require.Equal(t, 1, r.Events[0].Voice)
}
