package models

import (
	"fmt"
	"sort"
	"time"
)

// ResourceID is the numeric id (aid) the reply API keys comments by.
type ResourceID int64

// CommentRecord is one comment as returned by the reply listing.
type CommentRecord struct {
	AuthorName string `json:"authorName"`
	AuthorID   int64  `json:"authorId"`
	Avatar     string `json:"avatar"`
	Likes      int    `json:"likes"`
	Message    string `json:"message"`
}

// Status codes the reply API reports in its envelope.
const (
	CodeSuccess     = 0
	CodeRateLimited = -412
)

// StatusKind distinguishes the variants of FetchStatus.
type StatusKind int

const (
	StatusSuccess StatusKind = iota
	StatusRateLimited
	StatusFailure
)

// FetchStatus is the decoded envelope code of a reply page.
// Code is kept for reporting; callers switch on Kind.
type FetchStatus struct {
	Kind StatusKind
	Code int
}

// DecodeStatus maps a raw API code onto its FetchStatus variant.
func DecodeStatus(code int) FetchStatus {
	switch code {
	case CodeSuccess:
		return FetchStatus{Kind: StatusSuccess, Code: code}
	case CodeRateLimited:
		return FetchStatus{Kind: StatusRateLimited, Code: code}
	default:
		return FetchStatus{Kind: StatusFailure, Code: code}
	}
}

func (s FetchStatus) OK() bool { return s.Kind == StatusSuccess }

func (s FetchStatus) String() string {
	switch s.Kind {
	case StatusSuccess:
		return "success"
	case StatusRateLimited:
		return fmt.Sprintf("rate limited (%d)", s.Code)
	default:
		return fmt.Sprintf("failure (%d)", s.Code)
	}
}

// PageResult is a single page of the reply listing.
type PageResult struct {
	Page     int
	Comments []CommentRecord
	Status   FetchStatus
}

// ParticipantSet holds the distinct author names seen during a fetch.
type ParticipantSet struct {
	names map[string]struct{}
}

func NewParticipantSet() *ParticipantSet {
	return &ParticipantSet{names: make(map[string]struct{})}
}

// Add inserts name and reports whether it was new.
func (p *ParticipantSet) Add(name string) bool {
	if _, ok := p.names[name]; ok {
		return false
	}
	p.names[name] = struct{}{}
	return true
}

func (p *ParticipantSet) Contains(name string) bool {
	_, ok := p.names[name]
	return ok
}

func (p *ParticipantSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Names returns the participants in sorted order.
func (p *ParticipantSet) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.names))
	for name := range p.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// WinnerList is the sampled participants in draw order.
type WinnerList []string

// DrawResult stores the outcome of one lottery run over a video's comments.
type DrawResult struct {
	Code          string     `json:"code"`
	ResourceID    ResourceID `json:"resourceId"`
	TotalComments int        `json:"totalComments"`
	Participants  int        `json:"participants"`
	Requested     int        `json:"requested"`
	Winners       WinnerList `json:"winners"`
	DrawnAt       time.Time  `json:"drawnAt"`
}
