package userControllers

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/auth"
	"github.com/Mouss911/webnet-back/database/dbtest"
	"github.com/Mouss911/webnet-back/models"
)

func newUser(t *testing.T, db *gorm.DB, password string) auth.Actor {
	t.Helper()
	u := dbtest.User(t, db, models.RoleUser)
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	db.Model(&u).Update("password_hash", hash)
	return auth.Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func TestUpdateProfile(t *testing.T) {
	db := dbtest.New(t)
	actor := newUser(t, db, "password123")
	other := dbtest.User(t, db, models.RoleUser)

	name := "Jane Roe"
	user, err := UpdateProfile(db, actor, UpdateUserInput{
		Name:    &name,
		Address: &models.Address{City: "Dakar", Country: "SN"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.Name != name || user.Address.City != "Dakar" || user.Role != models.RoleUser {
		t.Fatalf("user = %+v", user)
	}

	taken := other.Email
	if _, err := UpdateProfile(db, actor, UpdateUserInput{Email: &taken}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("taken email error = %v, want conflict", err)
	}
	blank := " "
	if _, err := UpdateProfile(db, actor, UpdateUserInput{Name: &blank}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("blank name error = %v, want validation", err)
	}
}

func TestChangePassword(t *testing.T) {
	db := dbtest.New(t)
	actor := newUser(t, db, "password123")

	cases := []struct {
		name  string
		input ChangePasswordInput
		want  error
	}{
		{"wrong current", ChangePasswordInput{"nope", "newpass1", "newpass1"}, apperr.ErrValidation},
		{"too short", ChangePasswordInput{"password123", "abc", "abc"}, apperr.ErrValidation},
		{"mismatch", ChangePasswordInput{"password123", "newpass1", "newpass2"}, apperr.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ChangePassword(db, actor, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("ChangePassword() error = %v, want %v", err, tc.want)
			}
		})
	}

	if err := ChangePassword(db, actor, ChangePasswordInput{"password123", "newpass1", "newpass1"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	user, _ := GetProfile(db, actor)
	if !auth.CheckPassword(user.PasswordHash, "newpass1") {
		t.Fatal("new password not stored")
	}
}

func TestGetProfileUnknownUser(t *testing.T) {
	db := dbtest.New(t)
	if _, err := GetProfile(db, auth.Actor{UserID: "ghost"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("GetProfile error = %v", err)
	}
}
