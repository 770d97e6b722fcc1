package jobcan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"jobcan-cli/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/mazen160/go-random"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "someone@example.com"
	testPassword = "correct horse battery staple"
	sessionName  = "jobcan_session"
)

// fakeSite imitates the login and employee pages of the attendance site.
type fakeSite struct {
	t      testing.TB
	server *httptest.Server

	mu                sync.Mutex
	authenticityToken string
	actionToken       string
	session           string
	currentStatus     string
	employeeBody      string
	employeeFetches   int

	stampContentType string
	stampStatus      string
	// sent verbatim instead of the usual json body when set
	stampBody        string
	stampForm        url.Values
	loginForm        url.Values
}

func randomToken(t testing.TB) string {
	token, err := random.String(24)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func newFakeSite(t testing.TB) *fakeSite {
	site := &fakeSite{
		t:                 t,
		authenticityToken: randomToken(t),
		actionToken:       randomToken(t),
		currentStatus:     "returned_home",
		stampContentType:  "application/json",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/users/sign_in", site.handleLogin)
	mux.HandleFunc("/employee", site.handleEmployee)
	mux.HandleFunc("/employee/index/adit", site.handleStamp)
	site.server = httptest.NewServer(mux)
	t.Cleanup(site.server.Close)

	return site
}

func (s *fakeSite) deployment(encoding StatusEncoding) Deployment {
	return Deployment{
		LoginURL:       s.server.URL + "/users/sign_in",
		EmployeeURL:    s.server.URL + "/employee",
		StampURL:       s.server.URL + "/employee/index/adit",
		StatusEncoding: encoding,
	}
}

func (s *fakeSite) loginPage() string {
	return fmt.Sprintf(`
		<html>
			<body>
				<form action="/users/sign_in" method="post">
					<input type="hidden" name="authenticity_token" value="%s">
					<input name="user[email]">
					<input name="user[password]" type="password">
				</form>
			</body>
		</html>`, s.authenticityToken)
}

func (s *fakeSite) defaultEmployeePage() string {
	return fmt.Sprintf(`
		<html>
			<body>
				<p>Someone (勤務中)</p>
				<input type="hidden" name="token" value="%s">
				<select id="adit_group_id">
					<option value="1">Head Office</option>
					<option value="2">Osaka Branch</option>
				</select>
				<script>
					var current_status = "%s";
					var defaultAditGroupId = 2;
				</script>
			</body>
		</html>`, s.actionToken, s.currentStatus)
}

func (s *fakeSite) loggedIn(r *http.Request) bool {
	cookie, err := r.Cookie(sessionName)
	return err == nil && s.session != "" && cookie.Value == s.session
}

func (s *fakeSite) expireSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = ""
}

func (s *fakeSite) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Method == http.MethodPost {
		err := r.ParseForm()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.loginForm = r.PostForm
		if r.PostForm.Get("authenticity_token") == s.authenticityToken &&
			r.PostForm.Get("user[email]") == testEmail &&
			r.PostForm.Get("user[password]") == testPassword &&
			r.PostForm.Get("app_key") == "atd" &&
			r.PostForm.Get("commit") == "Login" {
			s.session = randomToken(s.t)
			http.SetCookie(w, &http.Cookie{Name: sessionName, Value: s.session, Path: "/"})
			http.Redirect(w, r, "/employee", http.StatusFound)
			return
		}
	}

	w.Header().Set("content-type", "text/html; charset=utf-8")
	fmt.Fprint(w, s.loginPage())
}

func (s *fakeSite) handleEmployee(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loggedIn(r) {
		http.Redirect(w, r, "/users/sign_in", http.StatusFound)
		return
	}
	s.employeeFetches++

	body := s.employeeBody
	if body == "" {
		body = s.defaultEmployeePage()
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	fmt.Fprint(w, body)
}

func (s *fakeSite) handleStamp(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Method != http.MethodPost || !s.loggedIn(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.stampForm = r.PostForm

	if s.stampContentType != "" {
		w.Header().Set("content-type", s.stampContentType)
	}
	if s.stampBody != "" {
		fmt.Fprint(w, s.stampBody)
		return
	}
	status := s.stampStatus
	if status == "" {
		status = s.currentStatus
	}
	fmt.Fprintf(w, `{"result":1,"state":0,"current_status":"%s"}`, status)
}

func newTestClient(t testing.TB, site *fakeSite, password string, encoding StatusEncoding) (*Client, *telemetry.Recorder) {
	recorder := &telemetry.Recorder{}
	client, err := NewClient(NewAccount(testEmail, password), ClientOptions{
		Deployment: site.deployment(encoding),
		Telemetry:  recorder,
	})
	if err != nil {
		t.Fatal(err)
	}
	return client, recorder
}

func loggedInClient(t testing.TB, site *fakeSite) *Client {
	client, _ := newTestClient(t, site, testPassword, StatusInlineScript)
	err := client.Login(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestLogin(t *testing.T) {
	site := newFakeSite(t)
	client, recorder := newTestClient(t, site, testPassword, StatusInlineScript)

	err := client.Login(context.Background())
	require.NoError(t, err)

	require.Equal(t, site.authenticityToken, site.loginForm.Get("authenticity_token"))
	require.Equal(t, testEmail, site.loginForm.Get("user[email]"))
	require.Equal(t, "atd", site.loginForm.Get("app_key"))
	require.Equal(t, "Login", site.loginForm.Get("commit"))
	require.Len(t, site.loginForm, 5)

	require.False(t, recorder.Contains(testPassword), "password leaked into telemetry")
}

func TestLoginRejected(t *testing.T) {
	site := newFakeSite(t)
	client, recorder := newTestClient(t, site, "wrong password", StatusInlineScript)

	err := client.Login(context.Background())
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr), "expected AuthError, got %v", err)
	require.Empty(t, recorder.Broken())
}

func clientFor(t testing.TB, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(NewAccount(testEmail, testPassword), ClientOptions{
		Deployment: Deployment{
			LoginURL:    server.URL + "/users/sign_in",
			EmployeeURL: server.URL + "/employee",
			StampURL:    server.URL + "/employee/index/adit",
		},
		Telemetry: &telemetry.Recorder{},
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestLoginMissingToken(t *testing.T) {
	client := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>maintenance</body></html>`)
	})

	err := client.Login(context.Background())
	requireExtractError(t, err)
}

func TestLoginTransportError(t *testing.T) {
	site := newFakeSite(t)
	client, recorder := newTestClient(t, site, testPassword, StatusInlineScript)
	site.server.Close()

	err := client.Login(context.Background())
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr), "expected TransportError, got %v", err)
	require.Equal(t, site.deployment(StatusInlineScript).LoginURL, transportErr.URL)
	require.Error(t, transportErr.Unwrap())
	require.NotEmpty(t, recorder.Broken())
}

func TestLoginPageServerError(t *testing.T) {
	client := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	err := client.Login(context.Background())
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr), "expected TransportError, got %v", err)
	require.Contains(t, err.Error(), "503")
}

func TestStamp(t *testing.T) {
	site := newFakeSite(t)
	site.stampStatus = "working"
	client := loggedInClient(t, site)

	err := client.Stamp(context.Background(), ClockIn, "2", true, "remote today")
	require.NoError(t, err)

	expected := url.Values{
		"is_yakin":      {"1"},
		"adit_item":     {"work_start"},
		"notice":        {"remote today"},
		"token":         {site.actionToken},
		"adit_group_id": {"2"},
		"_":             {""},
	}
	if diff := cmp.Diff(expected, site.stampForm); diff != "" {
		t.Fatalf("stamp form mismatch (-want +got):\n%s", diff)
	}
}

func TestStampEveryAction(t *testing.T) {
	for _, action := range Actions {
		t.Run(action.String(), func(t *testing.T) {
			site := newFakeSite(t)
			site.stampStatus = action.ExpectedStatusToken()
			client := loggedInClient(t, site)

			err := client.Stamp(context.Background(), action, "1", false, "")
			require.NoError(t, err)
			require.Equal(t, action.WireParam(), site.stampForm.Get("adit_item"))
			require.Equal(t, "0", site.stampForm.Get("is_yakin"))
		})
	}
}

func TestStampStatusMismatch(t *testing.T) {
	site := newFakeSite(t)
	site.stampStatus = "resting"
	client := loggedInClient(t, site)

	err := client.Stamp(context.Background(), ClockIn, "1", false, "")
	requireUnexpectedResponse(t, err)
	require.Contains(t, err.Error(), `"working"`)
	require.Contains(t, err.Error(), `"resting"`)
}

func TestStampIgnoresResultAndState(t *testing.T) {
	bodies := []string{
		`{"result":"ok","state":null,"current_status":"working"}`,
		`{"current_status":"working"}`,
		`{"result":1,"state":{"code":3},"current_status":"working","extra":[1,2]}`,
	}
	for _, body := range bodies {
		site := newFakeSite(t)
		site.stampBody = body
		client := loggedInClient(t, site)

		err := client.Stamp(context.Background(), ClockIn, "1", false, "")
		require.NoError(t, err, body)
	}

	site := newFakeSite(t)
	site.stampBody = `{"result":1,"state":0}`
	client := loggedInClient(t, site)
	err := client.Stamp(context.Background(), ClockIn, "1", false, "")
	requireUnexpectedResponse(t, err)
}

func TestStampContentType(t *testing.T) {
	table := []struct {
		contentType string
		ok          bool
	}{
		{contentType: "application/json", ok: true},
		{contentType: "application/json; charset=utf-8", ok: true},
		{contentType: "text/html", ok: false},
		// net/http sniffs a content-type when none is set, the body is
		// not html so it ends up text/plain
		{contentType: "", ok: false},
	}

	for _, row := range table {
		site := newFakeSite(t)
		site.stampStatus = "working"
		site.stampContentType = row.contentType
		client := loggedInClient(t, site)

		err := client.Stamp(context.Background(), ClockIn, "1", false, "")
		if row.ok {
			require.NoError(t, err, row.contentType)
			continue
		}
		requireUnexpectedResponse(t, err)
	}
}

func TestStampWithoutActionToken(t *testing.T) {
	site := newFakeSite(t)
	site.employeeBody = `<html><body><script>var current_status = "working";</script></body></html>`
	client := loggedInClient(t, site)

	err := client.Stamp(context.Background(), ClockOut, "1", false, "")
	requireExtractError(t, err)
	require.Nil(t, site.stampForm)
}

func TestQueries(t *testing.T) {
	site := newFakeSite(t)
	site.currentStatus = "resting"
	client := loggedInClient(t, site)
	ctx := context.Background()

	status, err := client.WorkStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, Resting, status)

	groups, err := client.ListGroups(ctx)
	require.NoError(t, err)
	require.Equal(t, []Group{
		{ID: "1", Name: "Head Office"},
		{ID: "2", Name: "Osaka Branch"},
	}, groups)

	id, err := client.DefaultGroupID(ctx)
	require.NoError(t, err)
	require.Equal(t, "2", id)

	// the login redirect counts as one fetch, every query fetches again
	require.Equal(t, 4, site.employeeFetches)
}

func TestEmployeePageSnapshot(t *testing.T) {
	site := newFakeSite(t)
	client := loggedInClient(t, site)
	fetchesAfterLogin := site.employeeFetches

	page, err := client.EmployeePage(context.Background())
	require.NoError(t, err)

	status, err := page.WorkingStatus()
	require.NoError(t, err)
	require.Equal(t, NotWorking, status)
	groups, err := page.Groups()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	id, err := page.DefaultGroupID()
	require.NoError(t, err)
	require.Equal(t, "2", id)

	require.Equal(t, fetchesAfterLogin+1, site.employeeFetches)
}

func TestMarkerDeployment(t *testing.T) {
	site := newFakeSite(t)
	site.currentStatus = "resting"
	client, _ := newTestClient(t, site, testPassword, StatusLocalizedMarker)
	require.NoError(t, client.Login(context.Background()))

	// the page carries "(勤務中)", the script variable is ignored
	status, err := client.WorkStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, Working, status)
}

func TestExpiredSession(t *testing.T) {
	site := newFakeSite(t)
	client := loggedInClient(t, site)
	site.expireSession()

	_, err := client.ListGroups(context.Background())
	requireUnexpectedResponse(t, err)
	require.Contains(t, err.Error(), "/users/sign_in")
}
