package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/spec-kit/task-board/internal/api/dto"
	"github.com/spec-kit/task-board/internal/client"
	"github.com/spec-kit/task-board/internal/config"
	"github.com/spec-kit/task-board/internal/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
	}

	server := flag.String("server", cfg.Client.BaseURL, "API base URL")
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "login password")
	flag.Parse()

	if *email == "" || *password == "" {
		fatalf("usage: client -email <email> -password <password> <command> [args]")
	}

	ctx := context.Background()
	api := client.New(*server, cfg.Client.Timeout())

	session, err := api.Login(ctx, *email, *password)
	if err != nil {
		fatalf("login: %v", err)
	}

	board := client.NewBoard(api, session.User)
	if err := board.Load(ctx); err != nil {
		fatalf("load tasks: %v", err)
	}

	args := flag.Args()
	command := "dashboard"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "dashboard":
		printDashboard(board)
	case "list":
		filter := client.FilterAll
		if len(args) > 1 {
			filter = client.Filter(args[1])
		}
		printTasks(board, filter)
	case "create":
		if len(args) < 3 {
			fatalf("usage: create <title> <description>")
		}
		if err := board.CreateTask(ctx, args[1], args[2], session.User); err != nil {
			fatalf("create: %v", err)
		}
		printDashboard(board)
	case "toggle":
		if len(args) < 2 {
			fatalf("usage: toggle <task-id>")
		}
		task, ok := findTask(board, args[1])
		if !ok {
			fatalf("unknown task %s", args[1])
		}
		if err := board.ToggleStatus(ctx, task); err != nil {
			fatalf("toggle: %v", err)
		}
		printDashboard(board)
	case "delete":
		if len(args) < 2 {
			fatalf("usage: delete <task-id>")
		}
		if err := board.DeleteTask(ctx, args[1]); err != nil {
			fatalf("delete: %v", err)
		}
		printDashboard(board)
	case "users":
		users, err := api.Users(ctx)
		if err != nil {
			fatalf("users: %v", err)
		}
		for _, u := range users {
			fmt.Printf("%s  %s <%s>\n", u.ID, u.Name, u.Email)
		}
	default:
		fatalf("unknown command %q", command)
	}
}

func printDashboard(board *client.Board) {
	counts := board.Cache().Counts(board.User().ID)
	fmt.Printf("total=%d mine=%d pending=%d completed=%d\n",
		counts.Total, counts.Mine, counts.Pending, counts.Completed)
	printTasks(board, client.FilterAll)
}

func printTasks(board *client.Board, filter client.Filter) {
	for _, task := range board.Cache().Filtered(filter, board.User().ID) {
		marker := " "
		if task.Status == domain.TaskStatusCompleted {
			marker = "x"
		}
		fmt.Printf("[%s] %s  %s (%s)\n", marker, task.ID, task.Title, task.AssignedUser.Name)
	}
}

func findTask(board *client.Board, taskID string) (dto.TaskResponse, bool) {
	for _, task := range board.Cache().Tasks() {
		if task.ID == taskID {
			return task, true
		}
	}
	return dto.TaskResponse{}, false
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
