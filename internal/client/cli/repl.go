package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ListTasks(ctx context.Context) error
	AddTask(ctx context.Context) error
	CompleteTask(ctx context.Context, args []string) error
	RemoveTask(ctx context.Context, args []string) error
	ShowProfile(ctx context.Context, args []string) error
	EditProfile(ctx context.Context, args []string) error
	ShowQueue(ctx context.Context) error
	Sync(ctx context.Context) error
	Pull(ctx context.Context) error
	Export(ctx context.Context) error
	Premium(ctx context.Context) error
	Backup(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches them to a. Handler
// errors are printed and the loop continues. The loop exits on EOF, on
// "exit"/"quit", or when ctx is done.
//
//	Not logged in:
//	  help, register, login, tasks, exit
//
//	Logged in:
//	  help, tasks, add, done <n>, rm <n>, show fitness|finances,
//	  edit fitness|finances, queue, sync, pull, export, premium, backup,
//	  deleteaccount, logout, exit
//
// Edits made while logged out or offline are kept locally and queued.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ontop %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: tasks, add, done <n>, rm <n>, show fitness|finances, edit fitness|finances, queue, sync, pull, export, premium, backup, deleteaccount, logout, exit")
			} else {
				printlnFn("Available commands: register, login, tasks, add, exit")
			}
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "tasks", "l", "list":
			err = a.ListTasks(ctx)
		case "add":
			err = a.AddTask(ctx)
		case "done":
			err = a.CompleteTask(ctx, args)
		case "rm":
			err = a.RemoveTask(ctx, args)
		case "show":
			err = a.ShowProfile(ctx, args)
		case "edit":
			err = a.EditProfile(ctx, args)
		case "sync":
			err = a.Sync(ctx)
		case "queue":
			err = a.ShowQueue(ctx)
		case "pull":
			err = a.Pull(ctx)
		case "export":
			err = a.Export(ctx)
		case "premium":
			err = a.Premium(ctx)
		case "backup":
			err = a.Backup(ctx)
		case "deleteaccount":
			err = a.DeleteAccount(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
