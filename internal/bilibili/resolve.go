package bilibili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"commentlottery/internal/models"
)

// ResolutionError reports that a public video code could not be mapped to an aid.
type ResolutionError struct {
	Code string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Code, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

var (
	ErrEmptyCode = errors.New("empty video code")
	ErrMissingID = errors.New("response carries no aid")
)

// Resolve maps a BV code to the numeric aid used by the reply API.
// All-digit input is treated as an aid already and returned without a request.
func (c *Client) Resolve(ctx context.Context, code string) (models.ResourceID, error) {
	if code == "" {
		return 0, &ResolutionError{Code: code, Err: ErrEmptyCode}
	}
	if isDigits(code) {
		id, err := strconv.ParseInt(code, 10, 64)
		if err != nil {
			return 0, &ResolutionError{Code: code, Err: err}
		}
		return models.ResourceID(id), nil
	}

	status, body, err := c.get(ctx, viewPath, url.Values{"bvid": {code}})
	if err != nil {
		return 0, &ResolutionError{Code: code, Err: err}
	}
	env, err := decodeEnvelope(body)
	if err != nil {
		if status != http.StatusOK {
			err = &StatusError{StatusCode: status, Err: err}
		}
		return 0, &ResolutionError{Code: code, Err: err}
	}
	if *env.Code != models.CodeSuccess {
		return 0, &ResolutionError{Code: code, Err: fmt.Errorf("api code %d: %s", *env.Code, env.Message)}
	}

	var view struct {
		Aid int64 `json:"aid"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &view); err != nil {
			return 0, &ResolutionError{Code: code, Err: fmt.Errorf("decode view: %w", err)}
		}
	}
	if view.Aid <= 0 {
		return 0, &ResolutionError{Code: code, Err: ErrMissingID}
	}
	return models.ResourceID(view.Aid), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
