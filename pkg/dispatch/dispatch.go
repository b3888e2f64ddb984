// Package dispatch implements the action dispatcher, the decision engine
// that turns a parsed invocation into exactly one of install, run, or none
// and then drives the matching collaborator. An invocation advances through
// the phases Parsed, Resolved, Decided, Executed. Resolution consults the
// library once per invocation; the decision is pure given the request, the
// resolution result, and the user's answer to the install-or-play prompt.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"lutra/internal/logging"
	"lutra/pkg/action"
	"lutra/pkg/library"
)

// --- Phases ---

// Phase marks how far an invocation has progressed through the pipeline.
type Phase string

// Invocation phases, in order.
const (
	PhaseParsed   Phase = "parsed"   // An action request exists.
	PhaseResolved Phase = "resolved" // The library has been consulted.
	PhaseDecided  Phase = "decided"  // The final action is fixed.
	PhaseExecuted Phase = "executed" // The collaborator ran (or nothing, for none).
)

// --- Decisions ---

// Decision is the final action fixed for an invocation.
type Decision string

// Decision constants.
const (
	DecisionNone    Decision = "none"    // Surface the main window only.
	DecisionInstall Decision = "install" // Invoke the installer collaborator.
	DecisionRun     Decision = "run"     // Launch the resolved game.
)

// Choice is the user's answer to the install-or-play prompt.
type Choice string

// Prompt answers.
const (
	ChoiceCancel  Choice = "cancel"
	ChoicePlay    Choice = "play"
	ChoiceInstall Choice = "install"
)

// --- Collaborator interfaces ---

// Resolver finds the library record for a request identifier. Production
// impl is *library.Library.
type Resolver interface {
	Resolve(ctx context.Context, identifier string, hint action.Action) (*library.Game, error)
}

// Installer runs an installer script for a slug or numeric id. File and
// revision narrow which script runs; both are empty when not supplied.
type Installer interface {
	Install(ctx context.Context, slugOrID, installerFile, revision string) error
}

// Launcher starts an installed game by library id.
type Launcher interface {
	Run(ctx context.Context, gameID int64) error
}

// Confirmer asks the user whether an already installed game should be
// played or installed again. A nil Confirmer means no interactive surface
// is available and the prompt silently resolves to none.
type Confirmer interface {
	InstallOrPlay(ctx context.Context, game *library.Game) (Choice, error)
}

// Frontend owns the user-visible surface. Present shows or raises the main
// window; Error surfaces a failure as a blocking notification.
type Frontend interface {
	Present()
	Error(err error)
}

// --- Dispatcher ---

// Dispatcher drives invocations through the pipeline.
type Dispatcher struct {
	resolver  Resolver
	installer Installer
	launcher  Launcher
	confirmer Confirmer
	frontend  Frontend
	log       *slog.Logger
}

// New creates a Dispatcher. confirmer may be nil for non-interactive
// invocations; the other collaborators are required.
func New(resolver Resolver, installer Installer, launcher Launcher, confirmer Confirmer, frontend Frontend, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logging.NewNop()
	}
	return &Dispatcher{
		resolver:  resolver,
		installer: installer,
		launcher:  launcher,
		confirmer: confirmer,
		frontend:  frontend,
		log:       log,
	}
}

// Outcome records how far an invocation progressed and what was decided.
type Outcome struct {
	Phase    Phase
	Decision Decision
	Game     *library.Game // resolved record, nil when nothing matched
}

// Dispatch runs one invocation to completion. The only hard failure is a
// run decision whose identifier resolved to nothing; every other error is
// reported through the Frontend and the pipeline keeps going.
func (d *Dispatcher) Dispatch(ctx context.Context, req *action.Request) (*Outcome, error) {
	out := &Outcome{Phase: PhaseParsed, Decision: DecisionNone}

	game, err := d.resolver.Resolve(ctx, req.Identifier, req.Action)
	if err != nil {
		d.frontend.Error(fmt.Errorf("resolve %q: %w", req.Identifier, err))
		game = nil
	}
	out.Game = game
	out.Phase = PhaseResolved
	d.log.Debug("resolved", "identifier", req.Identifier, "action", string(req.Action), "hit", game != nil)

	out.Decision = d.decide(ctx, req, game)
	out.Phase = PhaseDecided
	d.log.Debug("decided", "decision", string(out.Decision))

	if err := d.execute(ctx, req, game, out.Decision); err != nil {
		return out, err
	}
	out.Phase = PhaseExecuted
	return out, nil
}

// decide fixes the final action for a request.
func (d *Dispatcher) decide(ctx context.Context, req *action.Request, game *library.Game) Decision {
	switch req.Action {
	case action.ActionInstall:
		return DecisionInstall
	case action.ActionRunByID, action.ActionRunBySlug:
		return DecisionRun
	case action.ActionNone:
	default:
		// Unrecognized action token carried from the URI. The identifier
		// was still resolved above, but the invocation itself does nothing.
		return DecisionNone
	}

	if game != nil && game.Installed && !req.Reinstall {
		if d.confirmer == nil {
			return DecisionNone
		}
		choice, err := d.confirmer.InstallOrPlay(ctx, game)
		if err != nil {
			d.frontend.Error(fmt.Errorf("install or play prompt: %w", err))
			return DecisionNone
		}
		switch choice {
		case ChoicePlay:
			return DecisionRun
		case ChoiceInstall:
			return DecisionInstall
		default:
			return DecisionNone
		}
	}

	if req.Identifier != "" || req.InstallerFile != "" {
		return DecisionInstall
	}
	return DecisionNone
}

// execute invokes the collaborator matching the decision.
func (d *Dispatcher) execute(ctx context.Context, req *action.Request, game *library.Game, decision Decision) error {
	switch decision {
	case DecisionInstall:
		if err := d.installer.Install(ctx, req.Identifier, req.InstallerFile, req.Revision); err != nil {
			d.frontend.Error(fmt.Errorf("install %q: %w", req.Identifier, err))
		}
	case DecisionRun:
		if game == nil {
			// Launching needs a concrete library id. A miss here is a
			// caller error, never a prompt.
			return &UnresolvedRunError{Identifier: req.Identifier}
		}
		if err := d.launcher.Run(ctx, game.ID); err != nil {
			d.frontend.Error(fmt.Errorf("run %s: %w", game.Slug, err))
		}
	default:
		d.frontend.Present()
	}
	return nil
}
