package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/motaylenko/meedle/core/group"
	"github.com/motaylenko/meedle/core/user"
	"github.com/motaylenko/meedle/tests"
)

func Test_groupApi_crud(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.ua", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.ua", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	var created group.Group
	t.Run("Created", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/groups", adminToken, marchallObj(t, group.NewGroup{Name: "CS-101"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if created.ID == "" || created.Name != "CS-101" {
			t.Errorf("failed! created = %+v", created)
		}
	})

	t.Run("Name must be unique", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/groups", adminToken, marchallObj(t, group.NewGroup{Name: "CS-101"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "a group with this name already exists"}),
		}, rec)
	})

	t.Run("Admin required to create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/groups", getToken(t, student), marchallObj(t, group.NewGroup{Name: "CS-102"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("Any authed user can query", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/groups", getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, created)}, rec)
	})

	t.Run("Members added", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/groups/"+created.ID+"/members", adminToken,
			marchallObj(t, group.UpdateMembers{UserIDs: []string{student.ID}}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var grp group.Group
		if err := json.Unmarshal(rec.Body.Bytes(), &grp); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !grp.HasMember(student.ID) {
			t.Errorf("failed! members = %v; want %v in them", grp.MemberIDs, student.ID)
		}
	})

	t.Run("Members removed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/groups/"+created.ID+"/members", adminToken,
			marchallObj(t, group.UpdateMembers{UserIDs: []string{student.ID}}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var grp group.Group
		if err := json.Unmarshal(rec.Body.Bytes(), &grp); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if grp.HasMember(student.ID) {
			t.Errorf("failed! members = %v; want %v gone", grp.MemberIDs, student.ID)
		}
	})

	t.Run("Member IDs required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/groups/"+created.ID+"/members", adminToken,
			marchallObj(t, group.UpdateMembers{}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"user_ids": "this field is required"}),
		}, rec)
	})

	t.Run("Deleted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/groups/"+created.ID, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/groups/"+created.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})
}
