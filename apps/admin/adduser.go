package main

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// addUser creates an account with the given role, bypassing the signup API.
func (cli *commandLine) addUser(name, email, university string, role user.Role, pwd string) error {
	ctx := context.Background()

	now := time.Now().UTC()
	usr := user.User{
		Name:       core.CleanString(name),
		Email:      core.CleanString(email, true /* lower */),
		University: core.CleanString(university),
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	switch role {
	case user.RoleTeacher:
		usr.Teacher = &user.TeacherProfile{}
	case user.RoleStudent:
		usr.Student = &user.StudentProfile{}
	}

	if _, err := cli.usrRepo.CreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
