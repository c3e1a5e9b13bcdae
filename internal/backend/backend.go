package backend

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	userAgent = "spigell/unimatch"
	// Max rows PostgREST returns per request by default.
	pageSize = 1000

	restPath      = "/rest/v1"
	functionsPath = "/functions/v1"
)

// Client talks to the hosted backend: PostgREST tables under /rest/v1 and
// edge functions under /functions/v1.
type Client struct {
	apiKey      string
	accessToken string
	logger      *zap.Logger
	HTTPClient  *http.Client
	UserAgent   string
	BaseURL     string
	PageSize    int
}

// New creates a client. accessToken is the signed-in user's JWT; when empty
// the anon api key is sent as bearer as well.
func New(logger *zap.Logger, baseURL, apiKey, accessToken string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if accessToken == "" {
		accessToken = apiKey
	}

	return &Client{
		apiKey:      apiKey,
		accessToken: accessToken,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
		PageSize:  pageSize,
	}
}

func (c *Client) restURL(table string) string {
	return c.BaseURL + restPath + "/" + table
}
