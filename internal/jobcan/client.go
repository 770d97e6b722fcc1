package jobcan

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http/cookiejar"
	"net/url"
	"time"

	"jobcan-cli/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"
)

var tracer = otel.Tracer("jobcan-cli/internal/jobcan")

var meter = otel.Meter("jobcan-cli/internal/jobcan")
var stampCounter, _ = meter.Int64Counter("jobcan.stamps")

const (
	report_client_login         = "client.login"
	report_client_stamp         = "client.stamp"
	report_client_employee_page = "client.employee-page"
)

const (
	DefaultLoginURL    = "https://id.jobcan.jp/users/sign_in"
	DefaultEmployeeURL = "https://ssl.jobcan.jp/employee"
	DefaultStampURL    = "https://ssl.jobcan.jp/employee/index/adit"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	defaultTimeout   = time.Second * 30
)

// Deployment describes one generation of the attendance site.
type Deployment struct {
	LoginURL       string
	EmployeeURL    string
	StampURL       string
	StatusEncoding StatusEncoding
}

// DefaultDeployment is the public jobcan site.
func DefaultDeployment() Deployment {
	return Deployment{
		LoginURL:       DefaultLoginURL,
		EmployeeURL:    DefaultEmployeeURL,
		StampURL:       DefaultStampURL,
		StatusEncoding: StatusInlineScript,
	}
}

func (d Deployment) withDefaults() Deployment {
	def := DefaultDeployment()
	if d.LoginURL == "" {
		d.LoginURL = def.LoginURL
	}
	if d.EmployeeURL == "" {
		d.EmployeeURL = def.EmployeeURL
	}
	if d.StampURL == "" {
		d.StampURL = def.StampURL
	}
	return d
}

// Account is the credential pair a Client logs in with.
type Account struct {
	email    string
	password string
}

func NewAccount(email, password string) Account {
	return Account{email: email, password: password}
}

func (a Account) Email() string {
	return a.email
}

type ClientOptions struct {
	Deployment Deployment
	// 30 seconds if zero
	Timeout   time.Duration
	UserAgent string
	// slog if nil
	Telemetry telemetry.API
	// if set, every http exchange is rendered into it with credentials redacted
	HttpDump telemetry.MessageOutput
}

// Client is one cookie-bearing session of one Account. Login must succeed
// before any other method is called. A Client must not be used from more
// than one goroutine at a time.
type Client struct {
	account      Account
	deployment   Deployment
	employeePath string

	http *resty.Client
	tel  telemetry.API
}

func NewClient(account Account, opts ClientOptions) (*Client, error) {
	tel := opts.Telemetry
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	tel = telemetry.NewScopedAPI("jobcan", tel)

	deployment := opts.Deployment.withDefaults()
	employeeUrl, err := url.Parse(deployment.EmployeeURL)
	if err != nil {
		return nil, fmt.Errorf("parse employee url: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	httpClient := resty.New()
	httpClient.SetCookieJar(jar)
	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	httpClient.SetTimeout(timeout)

	telemetry.InstrumentResty(httpClient, tel, tracer, opts.HttpDump)

	return &Client{
		account:      account,
		deployment:   deployment,
		employeePath: employeeUrl.Path,
		http:         httpClient,
		tel:          tel,
	}, nil
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// fetchPage GETs a page that is expected to render successfully.
func (c *Client) fetchPage(ctx context.Context, endpoint, message string) (*resty.Response, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		return nil, &TransportError{Message: message, URL: endpoint, Err: err}
	}
	if !res.IsSuccess() {
		return nil, &TransportError{
			Message: message,
			URL:     endpoint,
			Err:     fmt.Errorf("unexpected http status %s", res.Status()),
		}
	}
	return res, nil
}

func finalPath(res *resty.Response) string {
	if res.RawResponse == nil || res.RawResponse.Request == nil {
		return ""
	}
	return res.RawResponse.Request.URL.Path
}

func (c *Client) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	loginUrl := c.deployment.LoginURL

	res, err := c.fetchPage(ctx, loginUrl, "failed to get login page")
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("login page request: %w", err))
		return failSpan(span, err)
	}
	doc, err := ParseDocument(res.Body())
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("parse login page: %w", err))
		return failSpan(span, err)
	}
	token, err := AuthenticityToken(doc)
	if err != nil {
		c.tel.ReportBroken(report_client_login, err)
		return failSpan(span, err)
	}

	res, err = c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"authenticity_token": token,
			"user[email]":        c.account.email,
			"user[password]":     c.account.password,
			"app_key":            "atd",
			"commit":             "Login",
		}).
		Post(loginUrl)
	if err != nil {
		err = &TransportError{Message: "failed to login request", URL: loginUrl, Err: err}
		c.tel.ReportBroken(report_client_login, err)
		return failSpan(span, err)
	}

	landed := finalPath(res)
	if landed != c.employeePath {
		c.tel.ReportWarning(report_client_login, "login did not land on employee page", landed)
		return failSpan(span, &AuthError{})
	}

	c.tel.ReportDebug("logged in", landed)
	return nil
}

// EmployeePage fetches the employee landing page once. Each call is a new
// request, callers that need several values from the same page should keep
// the returned value instead of calling the single-value methods repeatedly.
func (c *Client) EmployeePage(ctx context.Context) (EmployeePage, error) {
	ctx, span := tracer.Start(ctx, "client:EmployeePage")
	defer span.End()

	endpoint := c.deployment.EmployeeURL
	res, err := c.fetchPage(ctx, endpoint, "failed to get employee page")
	if err != nil {
		c.tel.ReportBroken(report_client_employee_page, err)
		return EmployeePage{}, failSpan(span, err)
	}

	landed := finalPath(res)
	if landed != c.employeePath {
		err := &UnexpectedResponseError{
			Message: fmt.Sprintf(
				"employee page redirected to %s, the session is not logged in or has expired",
				landed,
			),
		}
		c.tel.ReportWarning(report_client_employee_page, err)
		return EmployeePage{}, failSpan(span, err)
	}

	page, err := NewEmployeePage(res.RawResponse.Request.URL.String(), res.Body(), c.deployment.StatusEncoding)
	if err != nil {
		c.tel.ReportBroken(report_client_employee_page, err)
		return EmployeePage{}, failSpan(span, err)
	}
	return page, nil
}

// only current_status decides the outcome, result and state are kept raw
// for reporting
type stampResponse struct {
	Result        json.RawMessage `json:"result"`
	State         json.RawMessage `json:"state"`
	CurrentStatus string          `json:"current_status"`
}

func (c *Client) Stamp(ctx context.Context, action Action, groupId string, nightShift bool, note string) error {
	ctx, span := tracer.Start(ctx, "client:Stamp", trace.WithAttributes(
		attribute.String("action", action.String()),
		attribute.String("group_id", groupId),
		attribute.Bool("night_shift", nightShift),
	))
	defer span.End()

	page, err := c.EmployeePage(ctx)
	if err != nil {
		return failSpan(span, err)
	}
	token, err := page.ActionToken()
	if err != nil {
		c.tel.ReportBroken(report_client_stamp, err)
		return failSpan(span, err)
	}

	isYakin := "0"
	if nightShift {
		isYakin = "1"
	}

	stampUrl := c.deployment.StampURL
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"is_yakin":      isYakin,
			"adit_item":     action.WireParam(),
			"notice":        note,
			"token":         token,
			"adit_group_id": groupId,
			"_":             "",
		}).
		Post(stampUrl)
	if err != nil {
		err = &TransportError{Message: fmt.Sprintf("failed to request %s", action), URL: stampUrl, Err: err}
		c.tel.ReportBroken(report_client_stamp, err)
		return failSpan(span, err)
	}

	contentType := res.Header().Get("content-type")
	mediatype, _, _ := mime.ParseMediaType(contentType)
	if mediatype != "application/json" {
		err := &UnexpectedResponseError{
			Message: fmt.Sprintf(
				"failed to stamp %s: expected an application/json response, got content-type %q (http %s)",
				action, contentType, res.Status(),
			),
		}
		c.tel.ReportBroken(report_client_stamp, err)
		return failSpan(span, err)
	}

	var parsed stampResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		err := &UnexpectedResponseError{
			Message: fmt.Sprintf("failed to stamp %s: decode response: %v", action, err),
		}
		c.tel.ReportBroken(report_client_stamp, err)
		return failSpan(span, err)
	}

	expected := action.ExpectedStatusToken()
	if parsed.CurrentStatus != expected {
		err := &UnexpectedResponseError{
			Message: fmt.Sprintf(
				"failed to stamp %s: expected current_status %q, got %q",
				action, expected, parsed.CurrentStatus,
			),
		}
		c.tel.ReportWarning(report_client_stamp, err, string(parsed.Result), string(parsed.State))
		return failSpan(span, err)
	}

	stampCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action.String())))
	c.tel.ReportDebug("stamped", action.String(), parsed.CurrentStatus)
	return nil
}

func (c *Client) WorkStatus(ctx context.Context) (WorkingStatus, error) {
	page, err := c.EmployeePage(ctx)
	if err != nil {
		return NotWorking, err
	}
	return page.WorkingStatus()
}

func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	page, err := c.EmployeePage(ctx)
	if err != nil {
		return nil, err
	}
	return page.Groups()
}

func (c *Client) DefaultGroupID(ctx context.Context) (string, error) {
	page, err := c.EmployeePage(ctx)
	if err != nil {
		return "", err
	}
	return page.DefaultGroupID()
}
