package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/keyword-cli/internal/geotarget"
	"github.com/sells-group/keyword-cli/internal/model"
	"github.com/sells-group/keyword-cli/internal/repair"
)

// --- Resolver Mock ---

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, names []string) ([]string, geotarget.Stats) {
	args := m.Called(ctx, names)
	var out []string
	if args.Get(0) != nil {
		out = args.Get(0).([]string)
	}
	return out, args.Get(1).(geotarget.Stats)
}

// --- Categorizer Mock ---

type mockCategorizer struct {
	mock.Mock
}

func (m *mockCategorizer) Categorize(ctx context.Context, blog, csv string) repair.Record {
	args := m.Called(ctx, blog, csv)
	return args.Get(0).(repair.Record)
}

// --- RunSaver Mock ---

type mockSaver struct {
	mock.Mock
	saved []model.Run
}

func (m *mockSaver) SaveRun(ctx context.Context, run *model.Run) error {
	args := m.Called(ctx, run)
	if err := args.Error(0); err != nil {
		return err
	}
	run.ID = "run-123"
	m.saved = append(m.saved, *run)
	return nil
}
