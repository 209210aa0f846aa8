package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"commentlottery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginator(t *testing.T) {
	ctx := context.Background()

	t.Run("stops on first empty page", func(t *testing.T) {
		src := &fakeSource{pages: []fakePage{
			{authors: []string{"Alice", "Bob"}},
			{authors: []string{"Charlie"}},
			{},
			{authors: []string{"Never"}},
		}}
		p := NewPaginator(src, 1)

		var pages []models.PageResult
		for {
			page, ok, err := p.Next(ctx)
			require.NoError(t, err)
			if !ok {
				break
			}
			pages = append(pages, page)
		}

		require.Len(t, pages, 2)
		assert.Equal(t, 1, pages[0].Page)
		assert.Equal(t, 2, pages[1].Page)
		assert.Equal(t, StateDone, p.State())
		assert.Equal(t, []int{1, 2, 3}, src.requested)

		// Terminal state is sticky and makes no further requests.
		_, ok, err := p.Next(ctx)
		assert.False(t, ok)
		assert.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, src.requested)
	})

	t.Run("rate limit aborts", func(t *testing.T) {
		src := &fakeSource{pages: []fakePage{
			{authors: []string{"Alice"}},
			{code: models.CodeRateLimited},
		}}
		p := NewPaginator(src, 1)

		_, ok, err := p.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		_, ok, err = p.Next(ctx)
		assert.False(t, ok)
		var aborted *AbortedFetchError
		require.ErrorAs(t, err, &aborted)
		assert.True(t, aborted.IsRateLimited())
		assert.Equal(t, 2, aborted.Page)
		assert.Equal(t, StateAborted, p.State())

		_, ok, again := p.Next(ctx)
		assert.False(t, ok)
		assert.Equal(t, err, again)
		assert.Equal(t, []int{1, 2}, src.requested)
	})

	t.Run("other status aborts", func(t *testing.T) {
		src := &fakeSource{pages: []fakePage{{code: -404}}}
		p := NewPaginator(src, 1)

		_, _, err := p.Next(ctx)
		var aborted *AbortedFetchError
		require.ErrorAs(t, err, &aborted)
		assert.False(t, aborted.IsRateLimited())
		assert.Equal(t, -404, aborted.Status.Code)
	})

	t.Run("transport error aborts", func(t *testing.T) {
		boom := errors.New("connection refused")
		src := &fakeSource{pages: []fakePage{{err: boom}}}
		p := NewPaginator(src, 1)

		_, ok, err := p.Next(ctx)
		assert.False(t, ok)
		var transport *TransportError
		require.ErrorAs(t, err, &transport)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, StateAborted, p.State())
	})

	t.Run("page cap ends pagination", func(t *testing.T) {
		src := &fakeSource{pages: []fakePage{
			{authors: []string{"A"}},
			{authors: []string{"B"}},
			{authors: []string{"C"}},
		}}
		p := NewPaginator(src, 1, WithMaxPages(2))

		set, total, err := Extract(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, 2, set.Len())
		assert.Equal(t, []int{1, 2}, src.requested)
		assert.Equal(t, StateDone, p.State())
	})

	t.Run("paced requests honour cancellation", func(t *testing.T) {
		src := &fakeSource{pages: []fakePage{{authors: []string{"A"}}}}
		p := NewPaginator(src, 1, WithRequestInterval(time.Hour))

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err := p.Next(cctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, src.requested)
	})
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("aborted fetch yields no participants", func(t *testing.T) {
		src := &fakeSource{pages: []fakePage{
			{authors: []string{"Alice", "Bob"}},
			{code: -400},
		}}
		set, total, err := Extract(ctx, NewPaginator(src, 1))
		assert.Error(t, err)
		assert.Nil(t, set)
		assert.Zero(t, total)
	})

	t.Run("dedups across pages", func(t *testing.T) {
		src := &fakeSource{pages: []fakePage{
			{authors: []string{"Alice", "Bob", "Alice"}},
			{authors: []string{"Bob", "Charlie"}},
		}}
		set, total, err := Extract(ctx, NewPaginator(src, 1))
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, set.Names())
	})
}

func TestExtractorConsumeTwice(t *testing.T) {
	page := models.PageResult{Page: 1, Comments: []models.CommentRecord{
		{AuthorName: "Alice"}, {AuthorName: "Bob"}, {AuthorName: "Alice"},
	}}

	e := NewExtractor()
	e.Consume(page)
	distinctOnce := e.Participants().Len()
	totalOnce := e.Total()

	e.Consume(page)
	assert.Equal(t, 2*totalOnce, e.Total())
	assert.Equal(t, distinctOnce, e.Participants().Len())
	assert.LessOrEqual(t, e.Participants().Len(), e.Total())
}
