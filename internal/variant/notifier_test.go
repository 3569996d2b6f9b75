package variant

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

type stubSource struct {
	inputs []Input
}

func (s *stubSource) Inputs() []Input { return s.inputs }

func (s *stubSource) set(values ...string) {
	s.inputs = s.inputs[:0]
	for i, v := range values {
		s.inputs = append(s.inputs, Input{Index: i, Value: v, Kind: InputSelect})
	}
}

type stubMaster struct{ ids []int64 }

func (m *stubMaster) SetVariantID(id int64) { m.ids = append(m.ids, id) }

type stubHistory struct{ ids []int64 }

func (h *stubHistory) ReplaceVariant(id int64) { h.ids = append(h.ids, id) }

type recorded struct {
	Kind EventKind
	ID   int64
}

func record(n *Notifier) *[]recorded {
	var out []recorded
	for _, k := range []EventKind{SelectionChanged, ImageChanged, PriceChanged} {
		n.Subscribe(k, func(ev Event) {
			var id int64
			if ev.Variant != nil {
				id = ev.Variant.ID
			}
			out = append(out, recorded{Kind: ev.Kind, ID: id})
		})
	}
	return &out
}

func priced(id, price int64, img string, opts ...string) domain.Variant {
	v := domain.Variant{ID: id, Options: opts, Price: price, Available: true}
	if img != "" {
		v.FeaturedImage = &domain.Image{ID: id, Src: img}
	}
	return v
}

func TestNotifierUnresolvedToResolvedAlwaysEmitsPriceAndImage(t *testing.T) {
	product := domain.Product{ID: 1, Variants: []domain.Variant{
		priced(1, 100, "a.jpg", "Red"),
	}}
	src := &stubSource{}
	src.set("Green")
	n, err := NewNotifier(Options{Product: product, Source: src})
	require.NoError(t, err)
	require.Nil(t, n.Current())
	events := record(n)

	src.set("Red")
	n.OnOptionChange()

	want := []recorded{{SelectionChanged, 1}, {ImageChanged, 1}, {PriceChanged, 1}}
	if diff := cmp.Diff(want, *events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, n.Current())
	assert.Equal(t, int64(1), n.Current().ID)
}

func TestNotifierSamePriceSkipsPriceEvent(t *testing.T) {
	product := domain.Product{ID: 1, Variants: []domain.Variant{
		priced(1, 100, "", "A"),
		priced(2, 100, "", "B"),
	}}
	src := &stubSource{}
	src.set("A")
	master := &stubMaster{}
	n, err := NewNotifier(Options{Product: product, Source: src, MasterSelector: master})
	require.NoError(t, err)
	events := record(n)

	src.set("B")
	n.OnOptionChange()

	assert.Equal(t, []recorded{{SelectionChanged, 2}}, *events)
	assert.Equal(t, []int64{2}, master.ids)
}

func TestNotifierCompareAtPriceChangeEmitsPrice(t *testing.T) {
	compare := int64(150)
	a := priced(1, 100, "", "A")
	b := priced(2, 100, "", "B")
	b.CompareAtPrice = &compare
	src := &stubSource{}
	src.set("A")
	n, err := NewNotifier(Options{Product: domain.Product{Variants: []domain.Variant{a, b}}, Source: src})
	require.NoError(t, err)
	events := record(n)

	src.set("B")
	n.OnOptionChange()

	assert.Equal(t, []recorded{{SelectionChanged, 2}, {PriceChanged, 2}}, *events)
}

func TestNotifierImageOnlyWhenSourceDiffers(t *testing.T) {
	product := domain.Product{Variants: []domain.Variant{
		priced(1, 100, "same.jpg", "A"),
		priced(2, 100, "same.jpg", "B"),
		priced(3, 100, "other.jpg", "C"),
		priced(4, 100, "", "D"),
	}}
	src := &stubSource{}
	src.set("A")
	n, err := NewNotifier(Options{Product: product, Source: src})
	require.NoError(t, err)
	events := record(n)

	src.set("B")
	n.OnOptionChange()
	src.set("C")
	n.OnOptionChange()
	src.set("D")
	n.OnOptionChange()

	want := []recorded{
		{SelectionChanged, 2},
		{SelectionChanged, 3}, {ImageChanged, 3},
		{SelectionChanged, 4},
	}
	if diff := cmp.Diff(want, *events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestNotifierNoMatchKeepsCurrent(t *testing.T) {
	product := domain.Product{Variants: []domain.Variant{priced(1, 100, "", "A")}}
	src := &stubSource{}
	src.set("A")
	master := &stubMaster{}
	n, err := NewNotifier(Options{Product: product, Source: src, MasterSelector: master})
	require.NoError(t, err)
	events := record(n)

	src.set("Z")
	n.OnOptionChange()

	assert.Equal(t, []recorded{{SelectionChanged, 0}}, *events)
	require.NotNil(t, n.Current())
	assert.Equal(t, int64(1), n.Current().ID)
	assert.Empty(t, master.ids)
}

func TestNotifierHistoryOnlyWhenEnabled(t *testing.T) {
	product := domain.Product{Variants: []domain.Variant{priced(1, 100, "", "A"), priced(2, 200, "", "B")}}
	src := &stubSource{}
	src.set("A")
	hist := &stubHistory{}

	n, err := NewNotifier(Options{Product: product, Source: src, History: hist})
	require.NoError(t, err)
	src.set("B")
	n.OnOptionChange()
	assert.Empty(t, hist.ids)

	n, err = NewNotifier(Options{Product: product, Source: src, History: hist, EnableHistoryState: true})
	require.NoError(t, err)
	src.set("A")
	n.OnOptionChange()
	assert.Equal(t, []int64{1}, hist.ids)
}

func TestNotifierCloseDetachesListeners(t *testing.T) {
	product := domain.Product{Variants: []domain.Variant{priced(1, 100, "", "A"), priced(2, 200, "", "B")}}
	src := &stubSource{}
	src.set("A")
	n, err := NewNotifier(Options{Product: product, Source: src})
	require.NoError(t, err)
	events := record(n)
	assert.Equal(t, 3, n.ListenerCount())

	n.Close()
	assert.Equal(t, 0, n.ListenerCount())
	src.set("B")
	n.OnOptionChange()
	assert.Empty(t, *events)
}

func TestNotifierUnsubscribe(t *testing.T) {
	product := domain.Product{Variants: []domain.Variant{priced(1, 100, "", "A"), priced(2, 200, "", "B")}}
	src := &stubSource{}
	src.set("A")
	n, err := NewNotifier(Options{Product: product, Source: src})
	require.NoError(t, err)

	calls := 0
	unsubscribe := n.Subscribe(SelectionChanged, func(Event) { calls++ })
	unsubscribe()
	src.set("B")
	n.OnOptionChange()
	assert.Zero(t, calls)
}

func TestNewNotifierValidation(t *testing.T) {
	_, err := NewNotifier(Options{Product: domain.Product{Variants: []domain.Variant{{ID: 1}}}})
	require.Error(t, err)

	_, err = NewNotifier(Options{Source: &stubSource{}})
	require.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestNotifierMasterSelectorSetBeforePriceAndImage(t *testing.T) {
	product := domain.Product{ID: 1, Variants: []domain.Variant{
		priced(1, 100, "a.jpg", "Red"),
		priced(2, 200, "b.jpg", "Blue"),
	}}
	src := &stubSource{}
	src.set("Red")
	master := &stubMaster{}
	n, err := NewNotifier(Options{Product: product, Source: src, MasterSelector: master})
	require.NoError(t, err)

	var seen []int64
	observe := func(Event) {
		if len(master.ids) == 0 {
			seen = append(seen, 0)
			return
		}
		seen = append(seen, master.ids[len(master.ids)-1])
	}
	n.Subscribe(ImageChanged, observe)
	n.Subscribe(PriceChanged, observe)

	src.set("Blue")
	n.OnOptionChange()

	assert.Equal(t, []int64{2, 2}, seen)
}

func TestNotifierListenerMayTriggerAnotherChange(t *testing.T) {
	product := domain.Product{ID: 1, Options: []string{"Color", "Size"}, Variants: []domain.Variant{
		priced(1, 100, "", "Red", "S"),
		priced(2, 100, "", "Blue", "S"),
		priced(3, 150, "", "Blue", "M"),
	}}
	src := &stubSource{}
	src.set("Red", "S")
	n, err := NewNotifier(Options{Product: product, Source: src})
	require.NoError(t, err)
	events := record(n)

	// Picking Blue moves the dependent size control to M.
	n.Subscribe(SelectionChanged, func(ev Event) {
		if ev.Variant != nil && ev.Variant.ID == 2 {
			src.set("Blue", "M")
			n.OnOptionChange()
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		src.set("Blue", "S")
		n.OnOptionChange()
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnOptionChange did not return")
	}

	require.NotNil(t, n.Current())
	assert.Equal(t, int64(3), n.Current().ID)
	want := []recorded{{SelectionChanged, 2}, {SelectionChanged, 3}, {PriceChanged, 3}}
	if diff := cmp.Diff(want, *events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}
