package store

import "testing"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.UpsertProject(Project{ProjectID: "p1", RootPath: "/repo", DefaultRef: "live"}); err != nil {
		t.Fatalf("upsert project: %v", err)
	}
	return s
}

func TestSnippetsReplaceAndOverlap(t *testing.T) {
	s := newTestStore(t)
	err := s.ReplaceFileSnippets("p1", "live", "a.go", []Snippet{
		{SnippetHash: "h1", ProjectID: "p1", Ref: "live", Path: "a.go", LineStart: 1, LineEnd: 10, Body: "func A() {}"},
		{SnippetHash: "h2", ProjectID: "p1", Ref: "live", Path: "a.go", LineStart: 20, LineEnd: 30, Body: "func B() {}"},
	})
	if err != nil {
		t.Fatalf("replace file snippets: %v", err)
	}
	hits, err := s.SnippetsOverlapping("p1", "live", "a.go", 5, 15)
	if err != nil {
		t.Fatalf("snippets overlapping: %v", err)
	}
	if len(hits) != 1 || hits[0].SnippetHash != "h1" {
		t.Fatalf("expected one overlapping snippet h1, got %+v", hits)
	}
}

func TestJobLifecycleEnforcesSingleActive(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateJob(IndexJob{JobID: "j1", ProjectID: "p1", Ref: "live", SyncID: "s1"}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := s.CreateJob(IndexJob{JobID: "j2", ProjectID: "p1", Ref: "live", SyncID: "s2"}); err != ErrJobInFlight {
		t.Fatalf("expected ErrJobInFlight, got %v", err)
	}
	if err := s.TransitionJob("j1", JobStatePublished, ""); err != nil {
		t.Fatalf("transition job: %v", err)
	}
	active, err := s.ActiveJob("p1", "live")
	if err != nil {
		t.Fatalf("active job: %v", err)
	}
	if active != nil {
		t.Fatalf("expected no active job after publish, got %+v", active)
	}
	if err := s.CreateJob(IndexJob{JobID: "j3", ProjectID: "p1", Ref: "live", SyncID: "s3"}); err != nil {
		t.Fatalf("create job after publish: %v", err)
	}
}

func TestBranchStateEvictionOrdering(t *testing.T) {
	s := newTestStore(t)
	for _, b := range []BranchState{
		{ProjectID: "p1", Ref: "live", IsDefaultBranch: true, LastAccessedAt: "2026-01-01T00:00:00Z"},
		{ProjectID: "p1", Ref: "feature-a", LastAccessedAt: "2026-01-02T00:00:00Z"},
		{ProjectID: "p1", Ref: "feature-b", LastAccessedAt: "2026-01-01T12:00:00Z"},
	} {
		if err := s.UpsertBranchState(b); err != nil {
			t.Fatalf("upsert branch state: %v", err)
		}
	}
	candidates, err := s.EvictionCandidates("p1")
	if err != nil {
		t.Fatalf("eviction candidates: %v", err)
	}
	if len(candidates) != 2 || candidates[0].Ref != "feature-b" {
		t.Fatalf("expected feature-b first, got %+v", candidates)
	}
}

func TestLeaseAcquireReleaseRefcount(t *testing.T) {
	s := newTestStore(t)
	if err := s.AcquireLease("p1", "feature-a", "/tmp/wt", 123); err != nil {
		t.Fatalf("acquire lease: %v", err)
	}
	if err := s.AcquireLease("p1", "feature-a", "/tmp/wt", 123); err != nil {
		t.Fatalf("acquire lease again: %v", err)
	}
	lease, err := s.GetLease("p1", "feature-a")
	if err != nil {
		t.Fatalf("get lease: %v", err)
	}
	if lease.Refcount != 2 {
		t.Fatalf("expected refcount 2, got %d", lease.Refcount)
	}
	if err := s.ReleaseLease("p1", "feature-a"); err != nil {
		t.Fatalf("release lease: %v", err)
	}
	if err := s.ReleaseLease("p1", "feature-a"); err != nil {
		t.Fatalf("release lease again: %v", err)
	}
	lease, err = s.GetLease("p1", "feature-a")
	if err != nil {
		t.Fatalf("get lease after release: %v", err)
	}
	if lease.Status != "releasing" {
		t.Fatalf("expected status releasing, got %s", lease.Status)
	}
}

func TestKnownWorkspaceRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertKnownWorkspace(KnownWorkspace{Path: "/repo", ProjectID: "p1", AutoDiscovered: true}); err != nil {
		t.Fatalf("upsert known workspace: %v", err)
	}
	w, err := s.GetKnownWorkspace("/repo")
	if err != nil {
		t.Fatalf("get known workspace: %v", err)
	}
	if w.ProjectID != "p1" || !w.AutoDiscovered {
		t.Fatalf("unexpected workspace record: %+v", w)
	}
	if err := s.DeleteKnownWorkspace("/repo"); err != nil {
		t.Fatalf("delete known workspace: %v", err)
	}
	if _, err := s.GetKnownWorkspace("/repo"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStatsAggregatesCounts(t *testing.T) {
	s := newTestStore(t)
	if err := s.ReplaceFileSymbols("p1", "live", "a.go", []Symbol{
		{SymbolStableID: "sid1", ProjectID: "p1", Ref: "live", Name: "A", Kind: "function", Role: "callable", Language: "go", Path: "a.go"},
	}); err != nil {
		t.Fatalf("replace file symbols: %v", err)
	}
	if err := s.ReplaceFileEdges("p1", "live", []string{"sid1"}, []SymbolEdge{
		{ProjectID: "p1", Ref: "live", FromSymbolID: "sid1", ToName: "B", EdgeType: "calls", Confidence: "static"},
	}); err != nil {
		t.Fatalf("replace file edges: %v", err)
	}
	st, err := s.Stats("p1", "live")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.SymbolCount != 1 || st.EdgeCount != 1 || st.UnresolvedEdgeCount != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}
