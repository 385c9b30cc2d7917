package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/volatiletech/null/v8"

	"github.com/motaylenko/meedle/apps/api/echo"
	"github.com/motaylenko/meedle/core"
	"github.com/motaylenko/meedle/core/user"
	"github.com/motaylenko/meedle/services/email"
	"github.com/motaylenko/meedle/tests"
)

func loginBody(t *testing.T, uname, pwd string) []byte {
	return marchallObj(t, echoapi.LoginRequest{Username: uname, Password: pwd})
}

func blockState(t *testing.T, id string, reason string, until null.Time) {
	t.Helper()
	if _, err := usrRepo.SetBlockState(context.Background(), id, false, null.NewString(reason, reason != ""), until); err != nil {
		t.Fatalf("SetBlockState(): %v", err)
	}
}

func Test_userApi_login(t *testing.T) {
	resetDB(t)

	testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.ua", "LolC@t123", []string{user.RoleStudent}, true)
	blocked := testutil.CreateUser(t, usrRepo, "Naughty", "ndog01", "ndog@test.ua", "LolC@t123", []string{user.RoleStudent}, true)
	expired := testutil.CreateUser(t, usrRepo, "Late", "late01", "late@test.ua", "LolC@t123", []string{user.RoleStudent}, true)

	until := time.Now().UTC().Add(48 * time.Hour)
	blockState(t, blocked.ID, "cheating", null.TimeFrom(until))
	blockState(t, expired.ID, "spam", null.TimeFrom(time.Now().UTC().Add(-time.Hour)))

	deactivated := testutil.CreateUser(t, usrRepo, "Gone", "gone01", "gone@test.ua", "LolC@t123", []string{user.RoleStudent}, true)
	blockState(t, deactivated.ID, "", null.Time{})

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.LoginRequest{}),
			wantData: marchallObj(t, map[string]string{"username": reqMsg, "password": reqMsg}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest, body: loginBody(t, "nobody", "LolC@t123"),
			wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest, body: loginBody(t, "hero01", "nope"),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "blocked indefinitely", wantCode: http.StatusForbidden, body: loginBody(t, "gone01", "LolC@t123"),
			wantData: marchallObj(t, httpErr{Error: "account deactivated (blocked indefinitely)"}),
		},
		{
			name: "blocked until future", wantCode: http.StatusForbidden, body: loginBody(t, "ndog01", "LolC@t123"),
			wantData: marchallObj(t, httpErr{Error: "cheating (blocked until " + until.Format("Jan 2, 2006 at 15:04 MST") + ")"}),
		},
		{
			name: "blocked until future with wrong password", wantCode: http.StatusForbidden, body: loginBody(t, "ndog01", "nope"),
			wantData: marchallObj(t, httpErr{Error: "cheating (blocked until " + until.Format("Jan 2, 2006 at 15:04 MST") + ")"}),
		},
		{name: "expired block is lifted on login", wantCode: http.StatusOK, body: loginBody(t, "late01", "LolC@t123")},
		{name: "login with username", wantCode: http.StatusOK, body: loginBody(t, "hero01", "LolC@t123")},
		{name: "login with email", wantCode: http.StatusOK, body: loginBody(t, "hero@test.ua", "LolC@t123")},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	// the expired block must now be gone from the stored record
	refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: expired.ID})
	if err != nil {
		t.Fatalf("GetUser(): %v", err)
	}
	if !refreshed.IsActive {
		t.Error("failed! expired block was not lifted")
	}
	if refreshed.BlockReason.Valid || refreshed.BlockedUntil.Valid {
		t.Errorf("failed! block metadata not cleared: reason=%v until=%v", refreshed.BlockReason, refreshed.BlockedUntil)
	}
	if refreshed.LastLogin.IsZero() {
		t.Error("failed! lastLogin not set")
	}
}

func Test_userApi_block(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.ua", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.ua", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, admin)
	until := time.Now().UTC().Add(72 * time.Hour)

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/users/" + student.ID + "/block",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", path: "/v1/users/" + student.ID + "/block", token: getToken(t, student),
			body:     marchallObj(t, user.BlockUser{Reason: "cheating"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Reason required", path: "/v1/users/" + student.ID + "/block", token: adminToken,
			body:     marchallObj(t, user.BlockUser{}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"reason": "this field is required"}),
		},
		{
			name: "Expiry must be in the future", path: "/v1/users/" + student.ID + "/block", token: adminToken,
			body:     marchallObj(t, user.BlockUser{Reason: "cheating", Until: timePtr(time.Now().UTC().Add(-time.Hour))}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"until": "block expiry must be in the future"}),
		},
		{
			name: "Self-block forbidden", path: "/v1/users/" + admin.ID + "/block", token: adminToken,
			body:     marchallObj(t, user.BlockUser{Reason: "oops"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Blocked with expiry", path: "/v1/users/" + student.ID + "/block", token: adminToken,
			body:     marchallObj(t, user.BlockUser{Reason: "cheating", Until: &until}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.IsActive {
					t.Error("failed! user still active")
				}
				if got := respData.BlockReason.String; got != "cheating" {
					t.Errorf("failed! reason = %q; want %q", got, "cheating")
				}
				if !respData.BlockedUntil.Valid || !respData.BlockedUntil.Time.Equal(until) {
					t.Errorf("failed! until = %v; want %v", respData.BlockedUntil, until)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_unblock(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.ua", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.ua", "LolC@t123", []string{user.RoleStudent}, true)
	blockState(t, student.ID, "cheating", null.TimeFrom(time.Now().UTC().Add(48*time.Hour)))

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/"+student.ID+"/unblock", getToken(t, admin))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	var respData user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if !respData.IsActive {
		t.Error("failed! user still inactive")
	}
	if respData.BlockReason.Valid || respData.BlockedUntil.Valid {
		t.Errorf("failed! block metadata not cleared: reason=%v until=%v", respData.BlockReason, respData.BlockedUntil)
	}

	// login works again
	req, rec = newRequest(http.MethodPost, "/v1/users/login", loginBody(t, "hero01", "LolC@t123"))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
}

func Test_userApi_userQuery(t *testing.T) {
	resetDB(t)

	path := func(search, ordering string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			if *isActive {
				v.Add("is_active", "true")
			} else {
				v.Add("is_active", "false")
			}
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now().UTC()
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)
	t3 := now.Add(3 * time.Hour)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.ua", "", []string{user.RoleStudent}, true, t1)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teach@test.ua", "", []string{user.RoleTeacher}, true, t2)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.ua", "", []string{user.RoleAdmin}, true, t3)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog01", "ndog@test.ua", "", []string{user.RoleStudent}, false, now)

	adminToken := getToken(t, admin)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Auth required", path: path("", "created_at", nil), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: path("", "created_at", nil), token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", path: path("", "created_at", nil), token: adminToken,
			wantData: marchallList(t, naughty, student, teacher, admin),
		},
		{
			name: "Get all descending", path: path("", "-created_at", nil), token: adminToken,
			wantData: marchallList(t, admin, teacher, student, naughty),
		},
		{name: "search (unknown)", path: path("lol", "created_at", nil), token: adminToken, wantData: empty},
		{
			name: "search matches name, username or email", path: path("HERO", "created_at", nil), token: adminToken,
			wantData: marchallList(t, student),
		},
		{
			name: "role filter", path: path("", "created_at", nil, user.RoleStudent), token: adminToken,
			wantData: marchallList(t, naughty, student),
		},
		{
			name: "is_active=false", path: path("", "created_at", bPtr(false)), token: adminToken,
			wantData: marchallList(t, naughty),
		},
		{
			name: "combo", path: path("ndog", "created_at", bPtr(false), user.RoleStudent), token: adminToken,
			wantData: marchallList(t, naughty),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_retrieve(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.ua", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.ua", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other1", "other@test.ua", "", []string{user.RoleStudent}, true)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/" + student.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Own account", path: "/v1/users/" + student.ID, token: getToken(t, student),
			wantCode: http.StatusOK, wantData: marchallObj(t, student),
		},
		{
			name: "Someone else's account", path: "/v1/users/" + other.ID, token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Admin can retrieve anyone", path: "/v1/users/" + other.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, other),
		},
		{
			name: "Unknown ID", path: "/v1/users/nope", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userRefreshToken(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.ua", "", []string{user.RoleStudent}, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog01", "ndog@test.ua", "", []string{user.RoleStudent}, true)
	blockState(t, naughty.ID, "", null.Time{})

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   student.ID,
			Audience:  "Academia",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		IsStudent:    student.IsStudent(),
		Roles:        student.Roles,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Blocked user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated (blocked indefinitely)"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess the new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userResetPassword(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.ua", "LolC@t123", []string{user.RoleStudent}, true)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	type extraTest struct {
		emailSent bool
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.ua"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: true},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				// the reset mail is sent off the request goroutine
				msgs := waitForSentMessages(extra.emailSent)
				if extra.emailSent {
					if len(msgs) != 1 {
						t.Fatalf("failed! len(SentMessages) = %d; want 1", len(msgs))
					}
					msg := msgs[0]
					if got := msg.To[0].Address; got != student.Email {
						t.Errorf("failed! To = %v; want %v", got, student.Email)
					}
					if !strings.Contains(msg.TextContent, student.Name) {
						t.Errorf("failed! text content does not contain recipient's name %q", student.Name)
					}
					if !strings.Contains(msg.TextContent, "password-reset-confirm?uid=") {
						t.Error("failed! text content does not contain the reset link")
					}
				} else if len(msgs) > 0 {
					t.Errorf("failed! len(SentMessages) = %d; want 0", len(msgs))
				}
			}
		})
	}
}

func Test_userApi_userConfirmPasswordReset(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.ua", "LolC@t123", []string{user.RoleStudent}, true)
	validUID := user.EncodeUID(student)
	validToken, err := user.MakeToken(student)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"token": reqMsg, "uid": reqMsg, "password": reqMsg, "password_confirm": reqMsg}),
		},
		{
			name: "PasswordConfirm must = Password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "LolC@t456", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, map[string]string{"password_confirm": "password_confirm must be equal to Password"}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "%%%", Password: "LolC@t456", PasswordConfirm: "LolC@t456"}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "user not found", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "OTk5", Password: "LolC@t456", PasswordConfirm: "LolC@t456"}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: "LolC@t456", PasswordConfirm: "LolC@t456"}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "LolC@t456", PasswordConfirm: "LolC@t456"}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: student.ID})
				if err != nil {
					t.Fatalf("GetUser(): %v", err)
				}
				if err := refreshed.CheckPassword("LolC@t456"); err != nil {
					t.Error("failed to update new password")
				}
			}
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }

// waitForSentMessages polls the mock outbox; the reset mail is dispatched on a
// separate goroutine so an immediate read may race it.
func waitForSentMessages(expectAny bool) []core.EmailMessage {
	deadline := time.Now().Add(2 * time.Second)
	for {
		if msgs := emailsvc.SentMessages; (len(msgs) > 0) == expectAny || time.Now().After(deadline) {
			return msgs
		}
		time.Sleep(10 * time.Millisecond)
	}
}
