package services

import (
	"context"
	"fmt"

	"commentlottery/internal/models"
)

// fakePage is one scripted reply page. A zero value is an empty success page.
type fakePage struct {
	authors []string
	code    int
	err     error
}

// fakeSource serves scripted pages; pages past the script are empty.
type fakeSource struct {
	id         models.ResourceID
	resolveErr error
	pages      []fakePage

	resolveCalls int
	requested    []int
}

func (f *fakeSource) Resolve(ctx context.Context, code string) (models.ResourceID, error) {
	f.resolveCalls++
	if f.resolveErr != nil {
		return 0, f.resolveErr
	}
	return f.id, nil
}

func (f *fakeSource) FetchPage(ctx context.Context, id models.ResourceID, page int) (models.PageResult, error) {
	f.requested = append(f.requested, page)
	result := models.PageResult{Page: page, Status: models.DecodeStatus(models.CodeSuccess)}
	if page > len(f.pages) {
		return result, nil
	}
	p := f.pages[page-1]
	if p.err != nil {
		return models.PageResult{}, p.err
	}
	result.Status = models.DecodeStatus(p.code)
	for i, name := range p.authors {
		result.Comments = append(result.Comments, models.CommentRecord{
			AuthorName: name,
			AuthorID:   int64(i + 1),
			Message:    fmt.Sprintf("comment %d on page %d", i, page),
		})
	}
	return result, nil
}
