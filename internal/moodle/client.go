// Package moodle is a thin client for the Moodle REST web-service protocol
// and the local_questionimporter plugin functions layered on it. Every call
// is a token-authenticated form POST; Moodle reports its own failures as a
// 200 response carrying an exception body, so both transport-level and
// in-band failures surface as a TransportError.
package moodle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/crem-edu/qcm-importer/internal/utils"
)

const (
	restEndpoint = "/webservice/rest/server.php"

	fnSiteInfo        = "core_webservice_get_site_info"
	fnGetCourses      = "local_questionimporter_get_courses"
	fnGetCategories   = "local_questionimporter_get_question_categories"
	fnImportQuestions = "local_questionimporter_import_questions"
)

// TransportError wraps any failure to complete a web-service call: network
// errors, non-2xx statuses and Moodle exception payloads. Recoverable by
// retrying the user action.
type TransportError struct {
	Function string `json:"function"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

func (te *TransportError) Error() string {
	return fmt.Sprintf("moodle call %s failed: %s", te.Function, te.Reason)
}

func (te *TransportError) Unwrap() error {
	return te.Err
}

// IsTransport checks if error represents a failed web-service call
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// wsException is the error envelope Moodle returns in place of a result.
type wsException struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

type SiteInfo struct {
	SiteName string `json:"sitename"`
	FullName string `json:"fullname"`
	UserName string `json:"username"`
}

type Course struct {
	ID        int    `json:"id"`
	ShortName string `json:"shortname"`
	FullName  string `json:"fullname"`
}

type QuestionCategory struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	QuestionCount int    `json:"questioncount"`
}

type ImportResult struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

// Client calls one Moodle site with one token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     utils.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, logger utils.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Target identifies the site this client talks to, usable as a cache
// key component.
func (c *Client) Target() string {
	return c.baseURL
}

// TestConnection verifies the URL and token by fetching site info.
func (c *Client) TestConnection(ctx context.Context) (*SiteInfo, error) {
	var info SiteInfo
	if err := c.call(ctx, fnSiteInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetCourses lists the courses the token's user may import into.
func (c *Client) GetCourses(ctx context.Context) ([]Course, error) {
	var courses []Course
	if err := c.call(ctx, fnGetCourses, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetQuestionCategories lists the question banks of one course, with their
// question counts.
func (c *Client) GetQuestionCategories(ctx context.Context, courseID int) ([]QuestionCategory, error) {
	params := url.Values{}
	params.Set("courseid", strconv.Itoa(courseID))

	var categories []QuestionCategory
	if err := c.call(ctx, fnGetCategories, params, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ImportQuestions pushes generated XML into a question category. The XML
// travels base64-encoded; the server-side plugin decodes and feeds it to
// the stock XML question importer.
func (c *Client) ImportQuestions(ctx context.Context, categoryID int, xmlContent []byte) (*ImportResult, error) {
	params := url.Values{}
	params.Set("categoryid", strconv.Itoa(categoryID))
	params.Set("xmlcontent", base64.StdEncoding.EncodeToString(xmlContent))

	var result ImportResult
	if err := c.call(ctx, fnImportQuestions, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) call(ctx context.Context, wsfunction string, params url.Values, out any) error {
	form := url.Values{}
	form.Set("wstoken", c.token)
	form.Set("wsfunction", wsfunction)
	form.Set("moodlewsrestformat", "json")
	for key, values := range params {
		for _, value := range values {
			form.Add(key, value)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+restEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Function: wsfunction, Reason: "connection failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Function: wsfunction, Reason: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Moodle returned non-OK status",
			"function", wsfunction, "status_code", resp.StatusCode)
		return &TransportError{
			Function: wsfunction,
			Reason:   fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	// Moodle signals errors with a 200 and an exception object.
	var exception wsException
	if err := json.Unmarshal(body, &exception); err == nil && exception.Exception != "" {
		c.logger.Warn("Moodle returned an exception",
			"function", wsfunction, "errorcode", exception.ErrorCode, "message", exception.Message)
		return &TransportError{Function: wsfunction, Reason: exception.Message}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Function: wsfunction, Reason: "unexpected response format", Err: err}
	}
	return nil
}
