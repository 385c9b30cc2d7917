package testutil

import (
	"context"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/motaylenko/meedle/core"
	"github.com/motaylenko/meedle/core/course"
	"github.com/motaylenko/meedle/core/group"
	"github.com/motaylenko/meedle/core/schedule"
	"github.com/motaylenko/meedle/core/user"
)

// NewConfig builds a self-contained test configuration and installs it as the
// app-wide config. The term starts on Wed 2021-09-01; the week of Mon
// 2021-08-30 is therefore week 0 and labeled "upper".
func NewConfig() *core.Config {
	conf := &core.Config{
		Env:                       "TEST",
		TestMode:                  true,
		Build:                     "test",
		AppName:                   "Meedle",
		SecretKey:                 "t3st-0nly-s3cr3t-k3y+qsd87",
		WorkDir:                   projectRootDir(),
		FrontendBaseURL:           "http://localhost:3000",
		DefaultFromEmail:          mail.Address{Name: "Meedle", Address: "noreply@localhost"},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Host:                      "localhost",
			Port:                      8080,
			ShutdownTimeout:           5 * time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Schedule: core.ScheduleConfig{
			TermStart: time.Date(2021, time.September, 1, 0, 0, 0, 0, time.UTC),
			FirstWeek: "upper",
		},
	}
	core.Conf = conf
	return conf
}

// projectRootDir walks up from the working directory to the directory holding
// go.mod, so templates under assets/ resolve no matter which package is under
// test.
func projectRootDir() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd
		}
		dir = parent
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateGroup(t *testing.T, repo group.Repository, name string, memberIDs ...string) group.Group {
	now := time.Now().UTC()
	grp, err := repo.CreateGroup(context.Background(), group.Group{
		Name:      name,
		MemberIDs: memberIDs,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return grp
}

func CreateCourse(t *testing.T, repo course.Repository, code, name, teacherID string) course.Course {
	now := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Code:      code,
		Name:      name,
		TeacherID: teacherID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateTemplate(
	t *testing.T,
	repo schedule.Repository,
	groupID, courseID string,
	weekday time.Weekday,
	start, end schedule.TimeOfDay,
	room string,
	kind schedule.LessonKind,
	recurrence schedule.Recurrence,
) schedule.LessonTemplate {
	now := time.Now().UTC()
	tpl, err := repo.CreateLessonTemplate(context.Background(), schedule.LessonTemplate{
		GroupID:    groupID,
		CourseID:   courseID,
		Weekday:    weekday,
		StartTime:  start,
		EndTime:    end,
		Room:       room,
		Kind:       kind,
		Recurrence: recurrence,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateTemplate() failed: %v", err)
	}
	return tpl
}

func CreateOverride(
	t *testing.T,
	repo schedule.Repository,
	groupID, courseID string,
	date time.Time,
	start, end schedule.TimeOfDay,
	room string,
	kind schedule.LessonKind,
) schedule.LessonOverride {
	now := time.Now().UTC()
	ovr, err := repo.CreateLessonOverride(context.Background(), schedule.LessonOverride{
		GroupID:     groupID,
		CourseID:    courseID,
		Date:        schedule.DateOnly(date),
		StartTime:   start,
		EndTime:     end,
		Room:        room,
		Kind:        kind,
		IsTemporary: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateOverride() failed: %v", err)
	}
	return ovr
}
