package test

import (
	"go.uber.org/mock/gomock"
	"path/filepath"
	"silo_bridge/dal"
	"silo_bridge/shared"
	"silo_bridge/test/mocks"
	"testing"
)

// NewTestConfig returns a config with defaults applied and the DB in a temp dir.
func NewTestConfig(t *testing.T) *shared.Config {
	cfg := &shared.Config{
		Host:   "bridge.example",
		DbFile: filepath.Join(t.TempDir(), "bridge.db"),
	}
	cfg.ApplyDefaults()
	return cfg
}

// NewTestRepo opens an initialized sqlite repo that is closed when the test ends.
func NewTestRepo(t *testing.T, cfg *shared.Config) dal.IRepo {
	repo := dal.NewRepo(cfg, shared.NewDiscardLogger())
	repo.InitUpdateDb()
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func SetupDummyMetrics(ctrl *gomock.Controller, mockMetrics *mocks.MockIMetrics) {
	obs := mocks.NewMockIRequestObserver(ctrl)
	obs.EXPECT().Finish().AnyTimes()
	mockMetrics.EXPECT().StartApiRequestIn(gomock.Any()).Return(obs).AnyTimes()
	mockMetrics.EXPECT().StartDeliveryOut(gomock.Any()).Return(obs).AnyTimes()
	mockMetrics.EXPECT().ServiceStarted().AnyTimes()
	mockMetrics.EXPECT().Reconciled(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().TaskEnqueued(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().TaskHandled(gomock.Any(), gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().TaskQueueLength(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().CacheEvicted(gomock.Any(), gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().SyndicationInserted(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().DeliveryOutcome(gomock.Any()).AnyTimes()
}

// NewSource stores an enabled source for the given silo and returns it.
func NewSource(t *testing.T, repo dal.IRepo, silo, siloId string, domains ...string) *dal.Source {
	src := &dal.Source{
		Key:      shared.SourceKey(silo, siloId),
		Silo:     silo,
		SiloId:   siloId,
		Features: []string{"listen"},
		Domains:  domains,
		Status:   dal.SourceEnabled,
	}
	for _, d := range domains {
		src.DomainUrls = append(src.DomainUrls, "https://"+d+"/")
	}
	if _, err := repo.AddSourceIfNotExist(src); err != nil {
		t.Fatalf("failed to add source: %v", err)
	}
	return src
}
