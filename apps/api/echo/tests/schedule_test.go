package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/motaylenko/meedle/core/schedule"
	"github.com/motaylenko/meedle/core/user"
	"github.com/motaylenko/meedle/tests"
)

// The test term starts on Wed 2021-09-01, so the week of Mon 2021-08-30 is
// "upper". Mon 2021-09-06 opens a lower week, Mon 2021-09-13 an upper one.
var (
	lowerMonday = time.Date(2021, time.September, 6, 0, 0, 0, 0, time.UTC)
	upperMonday = time.Date(2021, time.September, 13, 0, 0, 0, 0, time.UTC)
)

func Test_groupApi_weekSchedule(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.ua", "", []string{user.RoleStudent}, true)
	grp := testutil.CreateGroup(t, grpRepo, "CS-101", student.ID)
	math := testutil.CreateCourse(t, crsRepo, "math101", "Mathematics", "")
	phys := testutil.CreateCourse(t, crsRepo, "phys101", "Physics", "")

	testutil.CreateTemplate(t, schedRepo, grp.ID, math.ID, time.Monday,
		schedule.NewTimeOfDay(8, 30), schedule.NewTimeOfDay(10, 0), "Ауд. 101", schedule.KindLecture, schedule.RecurrenceEvery)
	testutil.CreateTemplate(t, schedRepo, grp.ID, phys.ID, time.Monday,
		schedule.NewTimeOfDay(10, 10), schedule.NewTimeOfDay(11, 40), "Ауд. 202", schedule.KindPractice, schedule.RecurrenceUpper)
	testutil.CreateOverride(t, schedRepo, grp.ID, math.ID, lowerMonday,
		schedule.NewTimeOfDay(14, 0), schedule.NewTimeOfDay(15, 30), "Ауд. 999", schedule.KindLecture)

	token := getToken(t, student)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/groups/"+grp.ID+"/schedule/week")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("Unknown group", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/groups/nope/schedule/week", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("Malformed start date", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/groups/"+grp.ID+"/schedule/week?start=06.09.2021", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"start": "invalid date, expected YYYY-MM-DD"}),
		}, rec)
	})

	t.Run("Lower week: override replaces template, upper template dropped", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/groups/"+grp.ID+"/schedule/week?start=2021-09-06", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		var week schedule.WeekSchedule
		if err := json.Unmarshal(rec.Body.Bytes(), &week); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if week.Parity != schedule.RecurrenceLower {
			t.Errorf("failed! parity = %v; want %v", week.Parity, schedule.RecurrenceLower)
		}
		if len(week.Days) != 7 {
			t.Fatalf("failed! len(days) = %d; want 7", len(week.Days))
		}

		monday := week.Days[0]
		if len(monday.Lessons) != 1 {
			t.Fatalf("failed! Monday lessons = %+v; want the override only", monday.Lessons)
		}
		lesson := monday.Lessons[0]
		if lesson.CourseID != math.ID || lesson.Room != "Ауд. 999" || !lesson.IsTemporary {
			t.Errorf("failed! lesson = %+v; want temporary math in Ауд. 999", lesson)
		}
		for i := 1; i < 7; i++ {
			if n := len(week.Days[i].Lessons); n != 0 {
				t.Errorf("failed! days[%d] has %d lessons; want 0", i, n)
			}
		}
	})

	t.Run("Upper week: both templates, no override", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/groups/"+grp.ID+"/schedule/week?start="+upperMonday.Format("2006-01-02"), token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		var week schedule.WeekSchedule
		if err := json.Unmarshal(rec.Body.Bytes(), &week); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if week.Parity != schedule.RecurrenceUpper {
			t.Errorf("failed! parity = %v; want %v", week.Parity, schedule.RecurrenceUpper)
		}

		monday := week.Days[0]
		if len(monday.Lessons) != 2 {
			t.Fatalf("failed! Monday lessons = %+v; want 2", monday.Lessons)
		}
		if monday.Lessons[0].CourseID != math.ID || monday.Lessons[0].IsTemporary {
			t.Errorf("failed! first lesson = %+v; want permanent math", monday.Lessons[0])
		}
		if monday.Lessons[1].CourseID != phys.ID {
			t.Errorf("failed! second lesson = %+v; want physics", monday.Lessons[1])
		}
	})

	t.Run("Mid-week start snaps to the week's Monday", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/groups/"+grp.ID+"/schedule/week?start=2021-09-09", token) // Thursday
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		var week schedule.WeekSchedule
		if err := json.Unmarshal(rec.Body.Bytes(), &week); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !week.WeekStart.Equal(lowerMonday) {
			t.Errorf("failed! week start = %v; want %v", week.WeekStart, lowerMonday)
		}
		if week.Parity != schedule.RecurrenceLower {
			t.Errorf("failed! parity = %v; want %v", week.Parity, schedule.RecurrenceLower)
		}
		if len(week.Days) != 7 {
			t.Fatalf("failed! len(days) = %d; want 7", len(week.Days))
		}
		if !week.Days[0].Date.Equal(lowerMonday) {
			t.Errorf("failed! days[0] = %v; want %v", week.Days[0].Date, lowerMonday)
		}

		// Monday precedes the requested Thursday yet still carries its override
		monday := week.Days[0]
		if len(monday.Lessons) != 1 {
			t.Fatalf("failed! Monday lessons = %+v; want the override only", monday.Lessons)
		}
		if lesson := monday.Lessons[0]; lesson.CourseID != math.ID || !lesson.IsTemporary {
			t.Errorf("failed! lesson = %+v; want temporary math", lesson)
		}
	})

	t.Run("Default start is the current date", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/groups/"+grp.ID+"/schedule/week", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_groupApi_daySchedule(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.ua", "", []string{user.RoleStudent}, true)
	grp := testutil.CreateGroup(t, grpRepo, "CS-101", student.ID)
	math := testutil.CreateCourse(t, crsRepo, "math101", "Mathematics", "")

	testutil.CreateTemplate(t, schedRepo, grp.ID, math.ID, time.Monday,
		schedule.NewTimeOfDay(8, 30), schedule.NewTimeOfDay(10, 0), "Ауд. 101", schedule.KindLecture, schedule.RecurrenceEvery)

	token := getToken(t, student)

	req, rec := newAuthRequest(http.MethodGet, "/v1/groups/"+grp.ID+"/schedule/day?date=2021-09-06", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	var day schedule.DaySchedule
	if err := json.Unmarshal(rec.Body.Bytes(), &day); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if day.Weekday != time.Monday {
		t.Errorf("failed! weekday = %v; want %v", day.Weekday, time.Monday)
	}
	if len(day.Lessons) != 1 || day.Lessons[0].CourseID != math.ID {
		t.Errorf("failed! lessons = %+v; want math only", day.Lessons)
	}

	// tuesday has no lessons
	req, rec = newAuthRequest(http.MethodGet, "/v1/groups/"+grp.ID+"/schedule/day?date=2021-09-07", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &day); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(day.Lessons) != 0 {
		t.Errorf("failed! lessons = %+v; want none", day.Lessons)
	}
}

func Test_scheduleApi_templates(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.ua", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.ua", "", []string{user.RoleStudent}, true)
	grp := testutil.CreateGroup(t, grpRepo, "CS-101")
	math := testutil.CreateCourse(t, crsRepo, "math101", "Mathematics", "")

	adminToken := getToken(t, admin)

	newTpl := schedule.NewLessonTemplate{
		GroupID:    grp.ID,
		CourseID:   math.ID,
		Weekday:    time.Monday,
		StartTime:  schedule.NewTimeOfDay(8, 30),
		EndTime:    schedule.NewTimeOfDay(10, 0),
		Room:       "Ауд. 101",
		Kind:       schedule.KindLecture,
		Recurrence: schedule.RecurrenceEvery,
	}

	t.Run("Admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/schedule/templates", getToken(t, student), marchallObj(t, newTpl))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("Required fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/schedule/templates", adminToken, marchallObj(t, schedule.NewLessonTemplate{
			StartTime: schedule.NewTimeOfDay(8, 30),
			EndTime:   schedule.NewTimeOfDay(10, 0),
		}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"group_id":   "this field is required",
				"course_id":  "this field is required",
				"kind":       "this field is required",
				"recurrence": "this field is required",
			}),
		}, rec)
	})

	t.Run("End time must be after start time", func(t *testing.T) {
		bad := newTpl
		bad.StartTime = schedule.NewTimeOfDay(10, 0)
		bad.EndTime = schedule.NewTimeOfDay(8, 30)
		req, rec := newAuthRequest(http.MethodPost, "/v1/schedule/templates", adminToken, marchallObj(t, bad))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"end_time": "end time must be after start time"}),
		}, rec)
	})

	t.Run("Invalid recurrence", func(t *testing.T) {
		bad := newTpl
		bad.Recurrence = "fortnightly"
		req, rec := newAuthRequest(http.MethodPost, "/v1/schedule/templates", adminToken, marchallObj(t, bad))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"recurrence": "must be one of: every, upper, lower"}),
		}, rec)
	})

	var created schedule.LessonTemplate
	t.Run("Created", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/schedule/templates", adminToken, marchallObj(t, newTpl))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if created.ID == "" || created.GroupID != grp.ID || created.Recurrence != schedule.RecurrenceEvery {
			t.Errorf("failed! created = %+v", created)
		}
	})

	t.Run("Query requires group param", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schedule/templates", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"group": "required query parameter"}),
		}, rec)
	})

	t.Run("Query by group", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schedule/templates?group="+grp.ID, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var tpls []schedule.LessonTemplate
		if err := json.Unmarshal(rec.Body.Bytes(), &tpls); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if len(tpls) != 1 || tpls[0].ID != created.ID {
			t.Errorf("failed! templates = %+v; want the created one", tpls)
		}
	})

	t.Run("Updated", func(t *testing.T) {
		upd := schedule.UpdateLessonTemplate{
			Weekday:    time.Tuesday,
			StartTime:  schedule.NewTimeOfDay(12, 0),
			EndTime:    schedule.NewTimeOfDay(13, 30),
			Room:       "Ауд. 303",
			Kind:       schedule.KindLab,
			Recurrence: schedule.RecurrenceLower,
		}
		req, rec := newAuthRequest(http.MethodPut, "/v1/schedule/templates/"+created.ID, adminToken, marchallObj(t, upd))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var tpl schedule.LessonTemplate
		if err := json.Unmarshal(rec.Body.Bytes(), &tpl); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if tpl.Weekday != time.Tuesday || tpl.Room != "Ауд. 303" || tpl.Recurrence != schedule.RecurrenceLower {
			t.Errorf("failed! updated = %+v", tpl)
		}
	})

	t.Run("Unknown template", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schedule/templates/nope", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("Deleted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/schedule/templates/"+created.ID, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/schedule/templates/"+created.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})
}

func Test_scheduleApi_overrides(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.ua", "", []string{user.RoleAdmin}, true)
	grp := testutil.CreateGroup(t, grpRepo, "CS-101")
	math := testutil.CreateCourse(t, crsRepo, "math101", "Mathematics", "")

	adminToken := getToken(t, admin)

	newOvr := schedule.NewLessonOverride{
		GroupID:   grp.ID,
		CourseID:  math.ID,
		Date:      "2021-09-06",
		StartTime: schedule.NewTimeOfDay(14, 0),
		EndTime:   schedule.NewTimeOfDay(15, 30),
		Room:      "Ауд. 999",
		Kind:      schedule.KindLecture,
	}

	t.Run("Malformed date", func(t *testing.T) {
		bad := newOvr
		bad.Date = "06.09.2021"
		req, rec := newAuthRequest(http.MethodPost, "/v1/schedule/overrides", adminToken, marchallObj(t, bad))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	var created schedule.LessonOverride
	t.Run("Created as temporary", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/schedule/overrides", adminToken, marchallObj(t, newOvr))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !created.IsTemporary {
			t.Error("failed! override not flagged temporary")
		}
		if !created.Date.Equal(lowerMonday) {
			t.Errorf("failed! date = %v; want %v", created.Date, lowerMonday)
		}
	})

	t.Run("Query within date range", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schedule/overrides?group="+grp.ID+"&from=2021-09-06&to=2021-09-12", adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var ovrs []schedule.LessonOverride
		if err := json.Unmarshal(rec.Body.Bytes(), &ovrs); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if len(ovrs) != 1 || ovrs[0].ID != created.ID {
			t.Errorf("failed! overrides = %+v; want the created one", ovrs)
		}
	})

	t.Run("Query outside date range", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schedule/overrides?group="+grp.ID+"&from=2021-09-13&to=2021-09-19", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)
	})

	t.Run("Deleted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/schedule/overrides/"+created.ID, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/schedule/overrides/"+created.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})
}
