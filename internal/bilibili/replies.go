package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"commentlottery/internal/models"
)

type replyData struct {
	Replies []reply `json:"replies"`
}

type reply struct {
	Mid    int64 `json:"mid"`
	Like   int   `json:"like"`
	Member struct {
		Uname  string `json:"uname"`
		Avatar string `json:"avatar"`
	} `json:"member"`
	Content struct {
		Message string `json:"message"`
	} `json:"content"`
}

func (r reply) record() models.CommentRecord {
	return models.CommentRecord{
		AuthorName: r.Member.Uname,
		AuthorID:   r.Mid,
		Avatar:     r.Member.Avatar,
		Likes:      r.Like,
		Message:    r.Content.Message,
	}
}

// FetchPage requests one page of replies for id, most liked first.
// A non-success API code is not an error: it is returned in PageResult.Status
// and the caller decides what to do with it. Errors are transport or decoding
// failures only.
func (c *Client) FetchPage(ctx context.Context, id models.ResourceID, page int) (models.PageResult, error) {
	result := models.PageResult{Page: page}

	query := url.Values{
		"pn":   {strconv.Itoa(page)},
		"type": {replyTypeVideo},
		"oid":  {strconv.FormatInt(int64(id), 10)},
		"sort": {sortByLikes},
	}
	status, body, err := c.get(ctx, replyPath, query)
	if err != nil {
		return result, err
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		// The rate limiter sometimes answers with a bare HTTP 412 page.
		if status == http.StatusPreconditionFailed {
			result.Status = models.DecodeStatus(models.CodeRateLimited)
			return result, nil
		}
		if status != http.StatusOK {
			return result, &StatusError{StatusCode: status, Err: err}
		}
		return result, err
	}

	result.Status = models.DecodeStatus(*env.Code)
	if !result.Status.OK() {
		return result, nil
	}

	var data replyData
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return result, fmt.Errorf("decode replies: %w", err)
		}
	}
	result.Comments = make([]models.CommentRecord, 0, len(data.Replies))
	for _, r := range data.Replies {
		result.Comments = append(result.Comments, r.record())
	}
	return result, nil
}
