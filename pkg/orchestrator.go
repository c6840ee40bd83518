package relbump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultCommitMessage is the message of the version bump commit.
const DefaultCommitMessage = "version bump"

// Step names one stage of the release pipeline.
type Step string

const (
	StepResolveBump   Step = "resolve bump kind"
	StepLatestTag     Step = "fetch latest release tag"
	StepNextVersion   Step = "compute next version"
	StepMajor         Step = "derive major versions"
	StepGuard         Step = "check changes since release"
	StepBumpFiles     Step = "bump version in files"
	StepCommitPush    Step = "commit and push"
	StepCreateRelease Step = "create release"
	StepNotify        Step = "notify package index"
)

func (s Step) String() string { return string(s) }

// Plan is everything computed before the first mutation.
type Plan struct {
	Kind            BumpKind
	PreviousTag     string
	PreviousVersion string
	NextVersion     string
	NextTag         string
	PreviousMajor   int
	NextMajor       int
	// Module is the import path without major suffix, empty when the profile
	// does not use one.
	Module string
	// PreviousModulePath is the module path the released code declares:
	// Module itself for an unsuffixed v0 or v1 go.mod, Module/vN otherwise.
	PreviousModulePath string
}

// MajorChanged reports whether the bump moves to a new major version.
func (p Plan) MajorChanged() bool { return p.NextMajor != p.PreviousMajor }

// ModulePath returns the versioned import path of the next release.
func (p Plan) ModulePath() string {
	if p.Module == "" {
		return ""
	}
	return fmt.Sprintf("%s/v%d", p.Module, p.NextMajor)
}

func (p Plan) templateData() TemplateData {
	return TemplateData{
		Module:             p.Module,
		PreviousModulePath: p.PreviousModulePath,
		PreviousVersion:    p.PreviousVersion,
		NextVersion:        p.NextVersion,
		PreviousMajor:      p.PreviousMajor,
		NextMajor:          p.NextMajor,
	}
}

// Result describes a finished (or dry) run.
type Result struct {
	Plan
	// UpdatedFiles lists every file written (or that would be written).
	UpdatedFiles []string
	Commit       string
	Released     bool
	Notified     bool
	DryRun       bool
}

// Orchestrator drives a release from bump kind to package index notification.
// It is not safe for concurrent use and assumes a single run per repository.
type Orchestrator struct {
	VCS     VCS
	Host    ReleaseHost
	Index   PackageIndex // nil when the profile has no package index
	Bumper  Bumper
	Profile Profile
	// Fs is rooted at the repository working tree.
	Fs afero.Fs
	// CommitMessage defaults to DefaultCommitMessage.
	CommitMessage string
	// DryRun computes the plan and edits an in-memory overlay only.
	DryRun bool
	Logger *zap.Logger
	// Stderr receives operator remediation hints. Defaults to os.Stderr.
	Stderr io.Writer
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *Orchestrator) warn(msg string, err error) {
	o.logger().Warn(msg, zap.Error(err))
	w := o.Stderr
	if w == nil {
		w = os.Stderr
	}
	_, _ = color.New(color.FgRed, color.Bold).Fprintln(w, msg)
}

// Prepare runs the read-only steps (bump kind, latest tag, next version,
// major versions, changes guard) and returns the plan.
func (o *Orchestrator) Prepare(ctx context.Context, kind string) (Plan, error) {
	var plan Plan
	log := o.logger()

	bump, err := ParseBumpKind(kind)
	if err != nil {
		return plan, stepErr(StepResolveBump, ErrInvalidInput, err)
	}
	plan.Kind = bump

	tag, err := o.Host.LatestTag(ctx)
	if err != nil {
		return plan, stepErr(StepLatestTag, ErrUpstreamQuery, err)
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return plan, stepErr(StepLatestTag, ErrUpstreamQuery, errors.New("release host returned an empty tag name"))
	}
	plan.PreviousTag = tag
	plan.PreviousVersion = Normalize(tag)
	log.Info("latest release", zap.String("tag", tag))

	bumper := o.Bumper
	if bumper == nil {
		bumper = LibraryBumper{}
	}
	next, err := bumper.Bump(ctx, plan.PreviousVersion, bump)
	if err != nil {
		return plan, stepErr(StepNextVersion, ErrParse, err)
	}
	plan.NextVersion = next
	plan.NextTag = TagName(next)

	if plan.PreviousMajor, err = Major(plan.PreviousVersion); err != nil {
		return plan, stepErr(StepMajor, ErrParse, err)
	}
	if plan.NextMajor, err = Major(plan.NextVersion); err != nil {
		return plan, stepErr(StepMajor, ErrParse, err)
	}

	var declared string
	if plan.Module, declared, err = o.module(); err != nil {
		return plan, stepErr(StepMajor, ErrInvalidInput, err)
	}
	plan.PreviousModulePath = previousModulePath(plan.Module, declared, plan.PreviousMajor)

	head, err := o.VCS.HeadCommit(ctx)
	if err != nil {
		return plan, stepErr(StepGuard, ErrVCS, err)
	}
	released, err := o.VCS.TagCommit(ctx, tag)
	if err != nil {
		return plan, stepErr(StepGuard, ErrVCS, err)
	}
	if head == released {
		return plan, stepErr(StepGuard, ErrNoChanges, fmt.Errorf("no changes on main since release tagged %s", tag))
	}

	log.Info("release plan",
		zap.String("kind", string(plan.Kind)),
		zap.String("from", plan.PreviousVersion),
		zap.String("to", plan.NextVersion),
		zap.Bool("major_changed", plan.MajorChanged()),
	)
	return plan, nil
}

// module returns the unsuffixed module path and the path go.mod declares.
// go.mod is optional when the profile configures the module.
func (o *Orchestrator) module() (base, declared string, err error) {
	if o.Profile.Module == "" && !o.Profile.NeedsModule() && o.Profile.Index == IndexNone {
		return "", "", nil
	}
	declared, err = ReadModulePath(o.Fs, ".")
	if o.Profile.Module != "" {
		return o.Profile.Module, declared, nil
	}
	if err != nil {
		return "", "", err
	}
	return ModuleBase(declared), declared, nil
}

func previousModulePath(base, declared string, previousMajor int) string {
	if base == "" {
		return ""
	}
	if previousMajor <= 1 && declared == base {
		return base
	}
	return fmt.Sprintf("%s/v%d", base, previousMajor)
}

// Run executes the whole release. Every error is terminal and nothing is
// rolled back; see the operator hints printed for the release and
// notification steps.
func (o *Orchestrator) Run(ctx context.Context, kind string) (*Result, error) {
	plan, err := o.Prepare(ctx, kind)
	if err != nil {
		return nil, err
	}
	res := &Result{Plan: plan, DryRun: o.DryRun}
	log := o.logger()

	fsys := o.Fs
	if o.DryRun {
		fsys = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(o.Fs), afero.NewMemMapFs())
	}

	edits, err := o.Profile.Expand(fsys, plan.templateData())
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return res, stepErr(StepBumpFiles, ErrInvalidInput, err)
		}
		return res, stepErr(StepBumpFiles, ErrFileEdit, err)
	}
	for _, e := range edits {
		written, err := e.Apply(fsys)
		if err != nil {
			if errors.Is(err, ErrVersionMismatch) {
				return res, stepErr(StepBumpFiles, ErrVersionMismatch, err)
			}
			return res, stepErr(StepBumpFiles, ErrFileEdit, err)
		}
		if !written {
			continue
		}
		log.Debug("edited", zap.String("file", e.File()))
		if !slices.Contains(res.UpdatedFiles, e.File()) {
			res.UpdatedFiles = append(res.UpdatedFiles, e.File())
		}
		if o.DryRun {
			continue
		}
		if err := o.VCS.Stage(ctx, e.File()); err != nil {
			return res, stepErr(StepBumpFiles, ErrVCS, err)
		}
	}

	if o.DryRun {
		log.Info("dry run complete", zap.Strings("files", res.UpdatedFiles))
		return res, nil
	}

	msg := o.CommitMessage
	if msg == "" {
		msg = DefaultCommitMessage
	}
	if res.Commit, err = o.VCS.Commit(ctx, msg); err != nil {
		return res, stepErr(StepCommitPush, ErrVCS, err)
	}
	if err := o.VCS.Push(ctx); err != nil {
		return res, stepErr(StepCommitPush, ErrVCS, err)
	}
	log.Info("pushed version bump", zap.String("commit", res.Commit))

	if err := o.Host.CreateRelease(ctx, Release{Tag: plan.NextTag, GenerateNotes: true}); err != nil {
		o.warn("something went wrong while creating the release. Please revert the version change!", err)
		return res, stepErr(StepCreateRelease, ErrReleaseCreation, err)
	}
	res.Released = true
	log.Info("created release", zap.String("tag", plan.NextTag))

	if o.Index == nil {
		log.Info("no package index configured, skipping notification")
		return res, nil
	}
	if err := o.Index.Notify(ctx, plan.ModulePath(), plan.NextTag); err != nil {
		o.warn(fmt.Sprintf("%s could not be updated", o.Index.Name()), err)
		return res, stepErr(StepNotify, ErrNotification, err)
	}
	res.Notified = true
	log.Info("notified package index", zap.String("index", o.Index.Name()), zap.String("module", plan.ModulePath()))
	return res, nil
}
