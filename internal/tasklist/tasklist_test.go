package tasklist_test

import (
	"context"
	"errors"
	"testing"

	"taskdash/internal/service"
	"taskdash/internal/tasklist"
	"taskdash/internal/testutil"
)

var errBoom = &service.Error{Kind: service.KindHTTP, Status: 500, Message: "Internal Server Error"}

func newController(t *testing.T, svc *testutil.FakeService) *tasklist.Controller {
	t.Helper()
	ctrl := tasklist.New(svc, testutil.DefaultUserID, nil)
	if err := ctrl.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	return ctrl
}

func titles(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestFetch_ReplacesList(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false)
	svc.AddTask("b", true)

	ctrl := newController(t, svc)

	if got := titles(ctrl.Tasks()); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected tasks %v", got)
	}
	total, done := ctrl.Counts()
	if total != 2 || done != 1 {
		t.Errorf("unexpected counts %d/%d", total, done)
	}
}

func TestFetch_ErrorKeepsList(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false)
	ctrl := newController(t, svc)

	svc.GetTasksErr = errBoom
	if err := ctrl.Fetch(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if len(ctrl.Tasks()) != 1 {
		t.Error("list must be untouched after a failed fetch")
	}
}

func TestCreate_AppendsServerRecord(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false)
	ctrl := newController(t, svc)

	task, err := ctrl.Create(context.Background(), service.TaskInput{Title: "b"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID != 2 {
		t.Errorf("expected server id 2, got %d", task.ID)
	}
	if got := titles(ctrl.Tasks()); len(got) != 2 || got[1] != "b" {
		t.Errorf("expected new task appended, got %v", got)
	}
}

func TestCreate_ErrorLeavesListUnchanged(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateTaskErr = errBoom
	ctrl := newController(t, svc)

	if _, err := ctrl.Create(context.Background(), service.TaskInput{Title: "b"}); err == nil {
		t.Fatal("expected error")
	}
	if len(ctrl.Tasks()) != 0 {
		t.Error("no task may appear after a failed create")
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	svc := testutil.NewFakeService()
	ctrl := newController(t, svc)

	_, err := ctrl.Create(context.Background(), service.TaskInput{Title: ""})
	if !service.IsKind(err, service.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ctrl.Tasks()) != 0 {
		t.Error("list must be unchanged")
	}
}

func TestUpdate_ReplacesEntry(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false)
	svc.AddTask("b", false)
	ctrl := newController(t, svc)

	if _, err := ctrl.Update(context.Background(), 1, service.TaskInput{Title: "a2"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := titles(ctrl.Tasks()); got[0] != "a2" || got[1] != "b" {
		t.Errorf("expected position to be kept, got %v", got)
	}
}

func TestUpdate_ErrorKeepsEntry(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false)
	svc.UpdateTaskErr = errBoom
	ctrl := newController(t, svc)

	if _, err := ctrl.Update(context.Background(), 1, service.TaskInput{Title: "a2"}); err == nil {
		t.Fatal("expected error")
	}
	if got := titles(ctrl.Tasks()); got[0] != "a" {
		t.Errorf("entry must be unchanged, got %v", got)
	}
}

func TestToggle_TwiceRestores(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false)
	ctrl := newController(t, svc)
	ctx := context.Background()

	task, err := ctrl.Toggle(ctx, 1)
	if err != nil || !task.Completed {
		t.Fatalf("first toggle: %+v %v", task, err)
	}
	if cur, _ := ctrl.Find(1); !cur.Completed {
		t.Error("local list must reflect the first toggle")
	}

	task, err = ctrl.Toggle(ctx, 1)
	if err != nil || task.Completed {
		t.Fatalf("second toggle: %+v %v", task, err)
	}
	if cur, _ := ctrl.Find(1); cur.Completed {
		t.Error("local list must reflect the second toggle")
	}

	calls := svc.Calls()
	if calls[len(calls)-2] != "ToggleTaskCompletion(1,true)" || calls[len(calls)-1] != "ToggleTaskCompletion(1,false)" {
		t.Errorf("unexpected calls %v", calls)
	}
}

func TestToggle_UnknownTask(t *testing.T) {
	svc := testutil.NewFakeService()
	ctrl := newController(t, svc)

	if _, err := ctrl.Toggle(context.Background(), 7); !errors.Is(err, tasklist.ErrUnknownTask) {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
}

func TestSetCompleted_ErrorKeepsFlag(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false)
	svc.ToggleErr = errBoom
	ctrl := newController(t, svc)

	if _, err := ctrl.SetCompleted(context.Background(), 1, true); err == nil {
		t.Fatal("expected error")
	}
	if cur, _ := ctrl.Find(1); cur.Completed {
		t.Error("flag must not change on failure")
	}
}

func TestDelete(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false)
	svc.AddTask("b", false)
	ctrl := newController(t, svc)

	if err := ctrl.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := titles(ctrl.Tasks()); len(got) != 1 || got[0] != "b" {
		t.Errorf("unexpected tasks %v", got)
	}
}

func TestDelete_ErrorKeepsTask(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false)
	svc.DeleteTaskErr[1] = errBoom
	ctrl := newController(t, svc)

	if err := ctrl.Delete(context.Background(), 1); !errors.Is(err, errBoom) {
		t.Fatalf("expected delete error, got %v", err)
	}
	if len(ctrl.Tasks()) != 1 {
		t.Error("task must stay after a failed delete")
	}
}

func TestDelete_NotInList(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false)
	ctrl := tasklist.New(svc, testutil.DefaultUserID, nil)

	if err := ctrl.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(ctrl.Tasks()) != 0 {
		t.Error("unhydrated list must stay empty")
	}
}

func TestTasks_ReturnsCopy(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false)
	ctrl := newController(t, svc)

	tasks := ctrl.Tasks()
	tasks[0].Title = "mutated"

	if cur, _ := ctrl.Find(1); cur.Title != "a" {
		t.Error("callers must not be able to mutate the list")
	}
}
