package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"commentlottery/internal/bilibili"
	"commentlottery/internal/config"
	"commentlottery/internal/models"
	"commentlottery/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawCommand(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("pn") {
		case "1":
			fmt.Fprint(w, `{"code":0,"data":{"replies":[
				{"mid":1,"member":{"uname":"Alice"},"content":{"message":"a"}},
				{"mid":2,"member":{"uname":"Bob"},"content":{"message":"b"}},
				{"mid":1,"member":{"uname":"Alice"},"content":{"message":"c"}}]}}`)
		default:
			fmt.Fprint(w, `{"code":0,"data":{"replies":[]}}`)
		}
	}))
	defer ts.Close()

	cfg := config.Default()
	cfg.APIBase = ts.URL

	run := func(t *testing.T, args ...string) (string, error) {
		t.Helper()
		cmd, closeLog := newRootCmd(cfg)
		defer closeLog()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	t.Run("prints counts and winners", func(t *testing.T) {
		out, err := run(t, "draw", "170001", "--winners", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "共计抓取到 3 条评论")
		assert.Contains(t, out, "共有 2 个不同用户")
		assert.Contains(t, out, "中奖用户: ")
	})

	t.Run("draw is the default command", func(t *testing.T) {
		out, err := run(t, "170001")
		require.NoError(t, err)
		assert.Contains(t, out, "共计抓取到 3 条评论")
		assert.Contains(t, out, "共有 2 个不同用户")
		assert.Regexp(t, `中奖用户: (Alice|Bob), (Alice|Bob)\n`, out)
	})

	t.Run("winners flag on the root command", func(t *testing.T) {
		out, err := run(t, "170001", "-n", "1")
		require.NoError(t, err)
		assert.Regexp(t, `中奖用户: (Alice|Bob)\n`, out)
	})

	t.Run("no code prints help", func(t *testing.T) {
		out, err := run(t)
		require.NoError(t, err)
		assert.Contains(t, out, "commentlottery [bvid|aid]")
		assert.NotContains(t, out, "共计抓取到")
	})

	t.Run("requires a code", func(t *testing.T) {
		_, err := run(t, "draw")
		assert.Error(t, err)
	})

	t.Run("rejects more than one code", func(t *testing.T) {
		_, err := run(t, "170001", "170002")
		assert.Error(t, err)
	})

	t.Run("closing without a run is a no-op", func(t *testing.T) {
		_, closeLog := newRootCmd(cfg)
		assert.NotPanics(t, closeLog)
	})
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"rate limited",
			&services.AbortedFetchError{Page: 2, Status: models.DecodeStatus(-412)},
			"抓取失败，访问频率过高！错误代码：-412，请稍后再试！\n",
		},
		{
			"other status",
			&services.AbortedFetchError{Page: 1, Status: models.DecodeStatus(-404)},
			"抓取失败，错误代码：-404\n",
		},
		{
			"resolution",
			&bilibili.ResolutionError{Code: "BVx", Err: bilibili.ErrMissingID},
			"抓取失败：resolve \"BVx\": response carries no aid\n",
		},
		{
			"plain",
			errors.New("accepts 1 arg(s), received 0"),
			"accepts 1 arg(s), received 0\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
