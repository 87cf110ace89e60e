package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/ontop/internal/client/models"
	"github.com/dmitrijs2005/ontop/internal/common"
)

func (a *App) ListTasks(ctx context.Context) error {
	tasks, err := a.data.Tasks(ctx)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		printlnFn("No tasks.")
		return nil
	}
	for i, t := range tasks {
		printlnFn(formatTask(i+1, t))
	}
	return nil
}

func (a *App) AddTask(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	priority, err := getSimpleText(a.reader, "Priority (low/medium/high, empty for medium)", a.out)
	if err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Category (empty for personal)", a.out)
	if err != nil {
		return err
	}
	due, err := getSimpleText(a.reader, "Due date (YYYY-MM-DD, optional)", a.out)
	if err != nil {
		return err
	}

	tasks, err := a.data.Tasks(ctx)
	if err != nil {
		return err
	}
	tasks = append(tasks, models.Task{Title: title, Priority: priority, Category: category, DueDate: due})
	return a.saveTasks(ctx, tasks)
}

func (a *App) CompleteTask(ctx context.Context, args []string) error {
	tasks, i, err := a.pickTask(ctx, args)
	if err != nil {
		return err
	}
	tasks[i].Completed = !tasks[i].Completed
	return a.saveTasks(ctx, tasks)
}

func (a *App) RemoveTask(ctx context.Context, args []string) error {
	tasks, i, err := a.pickTask(ctx, args)
	if err != nil {
		return err
	}
	tasks = append(tasks[:i], tasks[i+1:]...)
	return a.saveTasks(ctx, tasks)
}

func (a *App) saveTasks(ctx context.Context, tasks []models.Task) error {
	out, err := a.data.SaveTasks(ctx, tasks)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Saved (%s).", out))
	return nil
}

// pickTask resolves the 1-based index in args[0] against the current list.
func (a *App) pickTask(ctx context.Context, args []string) ([]models.Task, int, error) {
	tasks, err := a.data.Tasks(ctx)
	if err != nil {
		return nil, 0, err
	}
	i, err := parseIndex(args, len(tasks))
	if err != nil {
		return nil, 0, err
	}
	return tasks, i, nil
}

func parseIndex(args []string, n int) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: task number required", common.ErrValidation)
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("%w: no task %q", common.ErrValidation, args[0])
	}
	return i - 1, nil
}

func formatTask(n int, t models.Task) string {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	s := fmt.Sprintf("%2d. [%s] %s (%s, %s)", n, mark, t.Title, orDefault(t.Priority, "medium"), orDefault(t.Category, "personal"))
	if t.DueDate != "" {
		s += " due " + t.DueDate
	}
	return s
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
