package closer

import (
	"errors"
	"testing"
	"time"
)

func TestCloser_ReverseOrder(t *testing.T) {
	c := New()

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		c.Add(func() error {
			order = append(order, i)
			return nil
		})
	}

	if err := c.CloseAll(); err != nil {
		t.Fatalf("CloseAll failed: %v", err)
	}
	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Errorf("order = %v, want [3 2 1]", order)
	}
}

func TestCloser_JoinsErrorsAndRunsOnce(t *testing.T) {
	c := New()
	errDB := errors.New("db")
	errBot := errors.New("bot")

	calls := 0
	c.Add(
		func() error { calls++; return errDB },
		func() error { calls++; return nil },
		func() error { calls++; return errBot },
	)

	err := c.CloseAll()
	if !errors.Is(err, errDB) || !errors.Is(err, errBot) {
		t.Fatalf("err = %v, want both errors", err)
	}
	if err2 := c.CloseAll(); err2 != err {
		t.Errorf("second CloseAll = %v, want %v", err2, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestCloser_Wait(t *testing.T) {
	c := New()
	waited := make(chan struct{})
	go func() {
		c.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned before CloseAll")
	case <-time.After(20 * time.Millisecond):
	}

	_ = c.CloseAll()

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after CloseAll")
	}
}
