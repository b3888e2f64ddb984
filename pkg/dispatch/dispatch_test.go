package dispatch //nolint:testpackage // white-box tests exercise decide directly

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"lutra/pkg/action"
	"lutra/pkg/library"
)

// --- Mock collaborators ---

type mockResolver struct {
	games map[string]*library.Game
	err   error
	calls int
}

func (m *mockResolver) Resolve(_ context.Context, identifier string, _ action.Action) (*library.Game, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.games[identifier], nil
}

type installCall struct {
	slugOrID, file, revision string
}

type mockInstaller struct {
	calls []installCall
	err   error
}

func (m *mockInstaller) Install(_ context.Context, slugOrID, file, revision string) error {
	m.calls = append(m.calls, installCall{slugOrID, file, revision})
	return m.err
}

type mockLauncher struct {
	ids []int64
	err error
}

func (m *mockLauncher) Run(_ context.Context, gameID int64) error {
	m.ids = append(m.ids, gameID)
	return m.err
}

type mockConfirmer struct {
	choice Choice
	err    error
	calls  int
}

func (m *mockConfirmer) InstallOrPlay(_ context.Context, _ *library.Game) (Choice, error) {
	m.calls++
	return m.choice, m.err
}

type mockFrontend struct {
	presents int
	errs     []error
}

func (m *mockFrontend) Present()        { m.presents++ }
func (m *mockFrontend) Error(err error) { m.errs = append(m.errs, err) }

// harness wires a Dispatcher to mocks. Games are resolvable by both their
// numeric id and their slug, the way the real library answers.
type harness struct {
	resolver  *mockResolver
	installer *mockInstaller
	launcher  *mockLauncher
	confirmer *mockConfirmer
	frontend  *mockFrontend
	d         *Dispatcher
}

func newHarness(games ...*library.Game) *harness {
	index := make(map[string]*library.Game)
	for _, g := range games {
		index[strconv.FormatInt(g.ID, 10)] = g
		index[g.Slug] = g
	}
	h := &harness{
		resolver:  &mockResolver{games: index},
		installer: &mockInstaller{},
		launcher:  &mockLauncher{},
		confirmer: &mockConfirmer{choice: ChoiceCancel},
		frontend:  &mockFrontend{},
	}
	h.d = New(h.resolver, h.installer, h.launcher, h.confirmer, h.frontend, nil)
	return h
}

// --- Tests ---

func TestDispatch_RunByIDLaunchesResolvedGame(t *testing.T) {
	h := newHarness(&library.Game{ID: 42, Slug: "osmos", Installed: true})

	out, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "42", Action: action.ActionRunByID})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Phase != PhaseExecuted {
		t.Fatalf("expected phase %q, got %q", PhaseExecuted, out.Phase)
	}
	if out.Decision != DecisionRun {
		t.Fatalf("expected decision %q, got %q", DecisionRun, out.Decision)
	}
	if len(h.launcher.ids) != 1 || h.launcher.ids[0] != 42 {
		t.Fatalf("expected launcher called with id 42, got %v", h.launcher.ids)
	}
	if len(h.installer.calls) != 0 {
		t.Fatalf("expected no installer calls, got %v", h.installer.calls)
	}
}

func TestDispatch_ExplicitInstallCarriesFileAndRevision(t *testing.T) {
	h := newHarness()

	req := &action.Request{
		Identifier:    "osmos",
		Action:        action.ActionInstall,
		Revision:      "4",
		InstallerFile: "/tmp/osmos.yml",
	}
	out, err := h.d.Dispatch(context.Background(), req)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Decision != DecisionInstall {
		t.Fatalf("expected decision %q, got %q", DecisionInstall, out.Decision)
	}
	want := installCall{slugOrID: "osmos", file: "/tmp/osmos.yml", revision: "4"}
	if len(h.installer.calls) != 1 || h.installer.calls[0] != want {
		t.Fatalf("expected installer call %+v, got %v", want, h.installer.calls)
	}
}

func TestDispatch_InstalledGameAsksInstallOrPlay(t *testing.T) {
	h := newHarness(&library.Game{ID: 7, Slug: "osmos", Installed: true})
	h.confirmer.choice = ChoicePlay

	out, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "osmos"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if h.confirmer.calls != 1 {
		t.Fatalf("expected one prompt, got %d", h.confirmer.calls)
	}
	if out.Decision != DecisionRun {
		t.Fatalf("expected decision %q, got %q", DecisionRun, out.Decision)
	}
	if len(h.launcher.ids) != 1 || h.launcher.ids[0] != 7 {
		t.Fatalf("expected launcher called with id 7, got %v", h.launcher.ids)
	}
}

func TestDispatch_PromptDeclinedDoesNothing(t *testing.T) {
	h := newHarness(&library.Game{ID: 7, Slug: "osmos", Installed: true})
	h.confirmer.choice = ChoiceCancel

	out, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "osmos"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Decision != DecisionNone {
		t.Fatalf("expected decision %q, got %q", DecisionNone, out.Decision)
	}
	if len(h.installer.calls) != 0 || len(h.launcher.ids) != 0 {
		t.Fatal("declined prompt must not invoke installer or launcher")
	}
	if h.frontend.presents != 1 {
		t.Fatalf("expected one Present, got %d", h.frontend.presents)
	}
}

func TestDispatch_PromptChoosesInstall(t *testing.T) {
	h := newHarness(&library.Game{ID: 7, Slug: "osmos", Installed: true})
	h.confirmer.choice = ChoiceInstall

	out, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "osmos"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Decision != DecisionInstall {
		t.Fatalf("expected decision %q, got %q", DecisionInstall, out.Decision)
	}
	if len(h.installer.calls) != 1 || h.installer.calls[0].slugOrID != "osmos" {
		t.Fatalf("expected install of osmos, got %v", h.installer.calls)
	}
}

func TestDispatch_NoConfirmerDefaultsToNone(t *testing.T) {
	h := newHarness(&library.Game{ID: 7, Slug: "osmos", Installed: true})
	h.d = New(h.resolver, h.installer, h.launcher, nil, h.frontend, nil)

	out, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "osmos"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Decision != DecisionNone {
		t.Fatalf("expected decision %q, got %q", DecisionNone, out.Decision)
	}
	if h.frontend.presents != 1 {
		t.Fatalf("expected one Present, got %d", h.frontend.presents)
	}
}

func TestDispatch_UnknownIdentifierInstalls(t *testing.T) {
	h := newHarness()

	out, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "strange-adventures"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Decision != DecisionInstall {
		t.Fatalf("expected decision %q, got %q", DecisionInstall, out.Decision)
	}
	want := installCall{slugOrID: "strange-adventures"}
	if len(h.installer.calls) != 1 || h.installer.calls[0] != want {
		t.Fatalf("expected installer call %+v, got %v", want, h.installer.calls)
	}
}

func TestDispatch_UninstalledRecordInstalls(t *testing.T) {
	h := newHarness(&library.Game{ID: 9, Slug: "osmos", Installed: false})

	out, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "osmos"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if h.confirmer.calls != 0 {
		t.Fatal("uninstalled record must not prompt")
	}
	if out.Decision != DecisionInstall {
		t.Fatalf("expected decision %q, got %q", DecisionInstall, out.Decision)
	}
}

func TestDispatch_EmptyRequestPresentsWindowOnly(t *testing.T) {
	h := newHarness()

	out, err := h.d.Dispatch(context.Background(), &action.Request{})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Phase != PhaseExecuted {
		t.Fatalf("expected phase %q, got %q", PhaseExecuted, out.Phase)
	}
	if out.Decision != DecisionNone {
		t.Fatalf("expected decision %q, got %q", DecisionNone, out.Decision)
	}
	if h.frontend.presents != 1 {
		t.Fatalf("expected one Present, got %d", h.frontend.presents)
	}
	if len(h.installer.calls) != 0 || len(h.launcher.ids) != 0 || h.confirmer.calls != 0 {
		t.Fatal("empty request must not invoke any collaborator")
	}
}

func TestDispatch_RunWithoutRecordFails(t *testing.T) {
	h := newHarness()

	out, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "999", Action: action.ActionRunByID})
	if err == nil {
		t.Fatal("expected an error for running an unresolved identifier")
	}
	var unresolved *UnresolvedRunError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected *UnresolvedRunError, got %T: %v", err, err)
	}
	if unresolved.Identifier != "999" {
		t.Fatalf("expected identifier 999 in error, got %q", unresolved.Identifier)
	}
	if out.Phase != PhaseDecided {
		t.Fatalf("expected phase %q, got %q", PhaseDecided, out.Phase)
	}
	if len(h.launcher.ids) != 0 {
		t.Fatalf("launcher must not run, got %v", h.launcher.ids)
	}
}

func TestDispatch_ResolverFailureDegrades(t *testing.T) {
	h := newHarness()
	h.resolver.err = errors.New("database is locked")

	out, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "osmos"})
	if err != nil {
		t.Fatalf("resolver failure must not abort dispatch: %v", err)
	}
	if len(h.frontend.errs) != 1 {
		t.Fatalf("expected one reported error, got %v", h.frontend.errs)
	}
	// With the library unreachable the identifier still drives an install.
	if out.Decision != DecisionInstall {
		t.Fatalf("expected decision %q, got %q", DecisionInstall, out.Decision)
	}
}

func TestDispatch_SameRequestSameDecision(t *testing.T) {
	h := newHarness(&library.Game{ID: 7, Slug: "osmos", Installed: true})
	h.confirmer.choice = ChoicePlay
	req := &action.Request{Identifier: "osmos"}

	first, err := h.d.Dispatch(context.Background(), req)
	if err != nil {
		t.Fatalf("first Dispatch: %v", err)
	}
	second, err := h.d.Dispatch(context.Background(), req)
	if err != nil {
		t.Fatalf("second Dispatch: %v", err)
	}
	if first.Decision != second.Decision {
		t.Fatalf("decisions diverged: %q then %q", first.Decision, second.Decision)
	}
	if len(h.launcher.ids) != 2 || h.launcher.ids[0] != h.launcher.ids[1] {
		t.Fatalf("expected two identical launches, got %v", h.launcher.ids)
	}
}

func TestDispatch_ReinstallSkipsPrompt(t *testing.T) {
	h := newHarness(&library.Game{ID: 7, Slug: "osmos", Installed: true})

	out, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "osmos", Reinstall: true})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if h.confirmer.calls != 0 {
		t.Fatal("reinstall must not prompt")
	}
	if out.Decision != DecisionInstall {
		t.Fatalf("expected decision %q, got %q", DecisionInstall, out.Decision)
	}
}

func TestDispatch_UnknownActionTokenDoesNothing(t *testing.T) {
	h := newHarness(&library.Game{ID: 7, Slug: "osmos", Installed: true})

	out, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "osmos", Action: "frobnicate"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if h.resolver.calls != 1 {
		t.Fatalf("expected one resolution attempt, got %d", h.resolver.calls)
	}
	if h.confirmer.calls != 0 {
		t.Fatal("unknown action must not prompt")
	}
	if out.Decision != DecisionNone {
		t.Fatalf("expected decision %q, got %q", DecisionNone, out.Decision)
	}
	if h.frontend.presents != 1 {
		t.Fatalf("expected one Present, got %d", h.frontend.presents)
	}
}

func TestDispatch_LauncherFailureIsReported(t *testing.T) {
	h := newHarness(&library.Game{ID: 42, Slug: "osmos", Installed: true})
	h.launcher.err = errors.New("runner missing")

	out, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "42", Action: action.ActionRunByID})
	if err != nil {
		t.Fatalf("launcher failure must not abort dispatch: %v", err)
	}
	if out.Phase != PhaseExecuted {
		t.Fatalf("expected phase %q, got %q", PhaseExecuted, out.Phase)
	}
	if len(h.frontend.errs) != 1 {
		t.Fatalf("expected one reported error, got %v", h.frontend.errs)
	}
}

func TestDispatch_InstallerFailureIsReported(t *testing.T) {
	h := newHarness()
	h.installer.err = errors.New("no installers found")

	_, err := h.d.Dispatch(context.Background(), &action.Request{Identifier: "osmos", Action: action.ActionInstall})
	if err != nil {
		t.Fatalf("installer failure must not abort dispatch: %v", err)
	}
	if len(h.frontend.errs) != 1 {
		t.Fatalf("expected one reported error, got %v", h.frontend.errs)
	}
}
