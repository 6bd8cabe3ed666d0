package planner_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/codesage/codesage/core/planner"
	"github.com/codesage/codesage/core/user"
	"github.com/codesage/codesage/storage/bus"
	dummydb "github.com/codesage/codesage/storage/database/dummy"
	testutil "github.com/codesage/codesage/tests"
)

func setup(t *testing.T) *planner.Service {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return planner.NewService(dummydb.NewPlannerRepository(db), bus.NewMemoryBus(), testutil.NopLogger{})
}

func member() user.User {
	return user.User{ID: "u1", Name: "Awa", TeamID: "t1"}
}

func createTasks(t *testing.T, svc *planner.Service, column string, n int) []planner.Task {
	t.Helper()
	tasks := make([]planner.Task, 0, n)
	for i := 0; i < n; i++ {
		task, err := svc.CreateTask(context.Background(), member(), planner.NewTask{
			Title:  fmt.Sprintf("%s %d", column, i),
			Column: column,
		})
		if err != nil {
			t.Fatalf("CreateTask() failed: %v", err)
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func boardTitles(tasks []planner.Task) []string {
	titles := make([]string, 0, len(tasks))
	for _, t := range tasks {
		titles = append(titles, t.Title)
	}
	return titles
}

func assertOrder(t *testing.T, tasks []planner.Task, want ...string) {
	t.Helper()
	if len(tasks) != len(want) {
		t.Fatalf("column = %v, want %v", boardTitles(tasks), want)
	}
	for i, title := range want {
		if tasks[i].Title != title {
			t.Fatalf("column = %v, want %v", boardTitles(tasks), want)
		}
		if tasks[i].Position != i {
			t.Errorf("task %q position = %d, want %d", title, tasks[i].Position, i)
		}
	}
}

func TestService_CreateTask_appendsToColumn(t *testing.T) {
	svc := setup(t)
	tasks := createTasks(t, svc, planner.ColumnTodo, 3)

	for i, task := range tasks {
		if task.Position != i {
			t.Errorf("task %d position = %d", i, task.Position)
		}
		if task.TeamID != "t1" || task.CreatedBy != "u1" {
			t.Errorf("task = %+v", task)
		}
	}

	board, err := svc.Board(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Board() failed: %v", err)
	}
	assertOrder(t, board.Todo, "todo 0", "todo 1", "todo 2")
	if len(board.Doing) != 0 || len(board.Done) != 0 {
		t.Errorf("board = %+v", board)
	}
}

func TestService_Move(t *testing.T) {
	ctx := context.Background()

	t.Run("within a column", func(t *testing.T) {
		svc := setup(t)
		tasks := createTasks(t, svc, planner.ColumnTodo, 3)

		moved, err := svc.Move(ctx, "t1", tasks[2].ID, planner.MoveTask{Column: planner.ColumnTodo, Position: 0})
		if err != nil {
			t.Fatalf("Move() failed: %v", err)
		}
		if moved.Position != 0 {
			t.Errorf("moved position = %d", moved.Position)
		}

		board, _ := svc.Board(ctx, "t1")
		assertOrder(t, board.Todo, "todo 2", "todo 0", "todo 1")
	})

	t.Run("across columns closes the gap", func(t *testing.T) {
		svc := setup(t)
		todo := createTasks(t, svc, planner.ColumnTodo, 3)
		createTasks(t, svc, planner.ColumnDoing, 2)

		if _, err := svc.Move(ctx, "t1", todo[1].ID, planner.MoveTask{Column: planner.ColumnDoing, Position: 1}); err != nil {
			t.Fatalf("Move() failed: %v", err)
		}

		board, _ := svc.Board(ctx, "t1")
		assertOrder(t, board.Todo, "todo 0", "todo 2")
		assertOrder(t, board.Doing, "doing 0", "todo 1", "doing 1")
	})

	t.Run("past-end position clamps to the bottom", func(t *testing.T) {
		svc := setup(t)
		todo := createTasks(t, svc, planner.ColumnTodo, 1)
		createTasks(t, svc, planner.ColumnDone, 2)

		moved, err := svc.Move(ctx, "t1", todo[0].ID, planner.MoveTask{Column: planner.ColumnDone, Position: 99})
		if err != nil {
			t.Fatalf("Move() failed: %v", err)
		}
		if moved.Position != 2 {
			t.Errorf("clamped position = %d, want 2", moved.Position)
		}

		board, _ := svc.Board(ctx, "t1")
		assertOrder(t, board.Done, "done 0", "done 1", "todo 0")
	})

	t.Run("unknown task", func(t *testing.T) {
		svc := setup(t)
		if _, err := svc.Move(ctx, "t1", "missing", planner.MoveTask{Column: planner.ColumnTodo, Position: 0}); err != planner.ErrTaskNotFound {
			t.Errorf("Move(missing) error = %v", err)
		}
	})
}

func TestService_UpdateTask(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	tasks := createTasks(t, svc, planner.ColumnTodo, 1)

	title := "wire the odometry pods"
	updated, err := svc.UpdateTask(ctx, "t1", tasks[0].ID, planner.UpdateTask{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask() failed: %v", err)
	}
	if updated.Title != title {
		t.Errorf("title = %q", updated.Title)
	}
	if updated.Details != tasks[0].Details {
		t.Errorf("details changed: %q", updated.Details)
	}

	// wrong team cannot touch the card
	if _, err = svc.UpdateTask(ctx, "t2", tasks[0].ID, planner.UpdateTask{Title: &title}); err != planner.ErrTaskNotFound {
		t.Errorf("UpdateTask(wrong team) error = %v", err)
	}
}

func TestService_DeleteTask_closesGap(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	tasks := createTasks(t, svc, planner.ColumnTodo, 3)

	if err := svc.DeleteTask(ctx, "t1", tasks[1].ID); err != nil {
		t.Fatalf("DeleteTask() failed: %v", err)
	}

	board, _ := svc.Board(ctx, "t1")
	assertOrder(t, board.Todo, "todo 0", "todo 2")

	if err := svc.DeleteTask(ctx, "t1", "missing"); err != planner.ErrTaskNotFound {
		t.Errorf("DeleteTask(missing) error = %v", err)
	}
}

func TestService_Snippets(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	s, err := svc.ShareSnippet(ctx, member(), planner.NewSnippet{
		Title:    "Mecanum drive",
		Language: "java",
		Code:     "double r = Math.hypot(x, y);",
	})
	if err != nil {
		t.Fatalf("ShareSnippet() failed: %v", err)
	}
	if s.ID == "" || s.TeamID != "t1" || s.CreatedBy != "u1" {
		t.Errorf("snippet = %+v", s)
	}

	snippets, err := svc.Snippets(ctx, "t1")
	if err != nil {
		t.Fatalf("Snippets() failed: %v", err)
	}
	if len(snippets) != 1 || snippets[0].Title != "Mecanum drive" {
		t.Errorf("snippets = %+v", snippets)
	}

	if err = svc.DeleteSnippet(ctx, "t1", s.ID); err != nil {
		t.Fatalf("DeleteSnippet() failed: %v", err)
	}
	if err = svc.DeleteSnippet(ctx, "t1", s.ID); err != planner.ErrSnippetNotFound {
		t.Errorf("DeleteSnippet(gone) error = %v", err)
	}

	snippets, _ = svc.Snippets(ctx, "t1")
	if len(snippets) != 0 {
		t.Errorf("snippets after delete = %+v", snippets)
	}
}
