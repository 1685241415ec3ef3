package cache_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	c "github.com/wkillerud/some-sass-sub003/internal/cache"
	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

var files = map[string]string{
	"/ws/_a.scss": "",
	"/ws/_b.scss": "",
	"/ws/_c.scss": "",
}

func extract(uri, text string) *symbols.Document {
	e := symbols.NewExtractor(&symbols.Targets{FS: fsys.NewMapFS(files), Root: "file:///ws"})
	return e.Extract(uri, 1, text)
}

func drain(ch <-chan c.Event) []c.Event {
	var out []c.Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := c.NewStore()
	events, err := s.Subscribe(ctx)
	require.NoError(t, err)

	main := "file:///ws/main.scss"

	t.Run("Set", func(t *testing.T) {
		require.NoError(t, s.Set(main, extract(main, `@use "a"; @use "sass:math"; @forward "b";`)))
		doc, ok := s.Get(main)
		require.True(t, ok)
		assert.Equal(t, main, doc.URI)
		assert.Equal(t, []string{main}, s.Dependents("file:///ws/_a.scss"))
		assert.Equal(t, []string{main}, s.Dependents("file:///ws/_b.scss"))
		assert.Empty(t, s.Dependents("sass:math"))

		got := drain(events)
		require.Len(t, got, 3)
		assert.Equal(t, c.CreateDocument, got[0].Type)
		assert.Equal(t, c.CreateLink, got[1].Type)
		assert.Equal(t, c.CreateLink, got[2].Type)
	})

	t.Run("Set replaces", func(t *testing.T) {
		before, _ := s.Get(main)
		require.NoError(t, s.Set(main, extract(main, `@use "a"; @use "c";`)))
		after, _ := s.Get(main)
		assert.NotSame(t, before, after)
		// The old snapshot is untouched.
		assert.Len(t, before.Forwards, 1)
		assert.Empty(t, s.Dependents("file:///ws/_b.scss"))
		assert.Equal(t, []string{main}, s.Dependents("file:///ws/_c.scss"))

		got := drain(events)
		require.Len(t, got, 3)
		assert.Equal(t, c.UpdateDocument, got[0].Type)
		assert.Equal(t, &c.LinkEvent{Source: main, Target: "file:///ws/_b.scss"}, got[1].Link)
		assert.Equal(t, c.DeleteLink, got[1].Type)
		assert.Equal(t, c.CreateLink, got[2].Type)
	})

	t.Run("Set rejects mismatched uri", func(t *testing.T) {
		err := s.Set("file:///ws/other.scss", extract(main, ""))
		assert.ErrorIs(t, err, c.ErrURIMismatch)
	})

	t.Run("Values", func(t *testing.T) {
		other := "file:///ws/_a.scss"
		require.NoError(t, s.Set(other, extract(other, "$a: 1;")))
		values := s.Values()
		require.Len(t, values, 2)
		assert.Equal(t, other, values[0].URI)
		assert.Equal(t, []string{other, main}, s.URIs())
		drain(events)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(main))
		_, ok := s.Get(main)
		assert.False(t, ok)
		assert.Empty(t, s.Dependents("file:///ws/_a.scss"))
		assert.ErrorIs(t, s.Delete(main), c.ErrDocumentNotFound)

		got := drain(events)
		require.Len(t, got, 3)
		assert.Equal(t, c.DeleteDocument, got[2].Type)
	})

	t.Run("Clear", func(t *testing.T) {
		s.Clear()
		assert.Equal(t, 0, s.Len())
		assert.Empty(t, s.Values())
	})
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	s := c.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.Subscribe(ctx)
	require.NoError(t, err)
	cancel()
	for range ch {
	}
}

func TestValuesDuringSet(t *testing.T) {
	s := c.NewStore()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			uri := fmt.Sprintf("file:///ws/f%d.scss", i%10)
			_ = s.Set(uri, extract(uri, "$x: 1;"))
		}
	}()
	for i := 0; i < 200; i++ {
		for _, d := range s.Values() {
			require.NotNil(t, d)
		}
	}
	<-done
	assert.Equal(t, 10, s.Len())
}

func FuzzStore(f *testing.F) {
	f.Add([]byte("seed1"))
	f.Add([]byte("fuzz!"))

	names := []string{"main", "_a", "_b", "_c", "other"}
	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) == 0 {
			t.Skip("Skipping empty input")
		}
		s := c.NewStore()
		for i := 0; i+1 < len(data); i += 2 {
			uri := "file:///ws/" + names[int(data[i])%len(names)] + ".scss"
			switch data[i+1] % 3 {
			case 0:
				var text string
				for j := 0; j < int(data[i+1])%4; j++ {
					text += fmt.Sprintf("@use %q;\n", names[(int(data[i])+j)%len(names)])
				}
				if err := s.Set(uri, extract(uri, text)); err != nil {
					t.Fatalf("Set %s: %v", uri, err)
				}
			case 1:
				_ = s.Delete(uri)
			case 2:
				s.Values()
			}
		}
		// Every backlink belongs to a stored document that links there.
		for _, doc := range s.Values() {
			for _, l := range doc.Links(true) {
				if l.Target == "" || l.Builtin() {
					continue
				}
				if !contains(s.Dependents(l.Target), doc.URI) {
					t.Fatalf("missing backlink %s -> %s", doc.URI, l.Target)
				}
			}
		}
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
