// Package relbump provides a library for cutting releases of versioned libraries.
//
// It provides functionalities for:
//   - Computing the next semantic version from the latest published release tag
//     (major or minor bumps), either in-process or through an external semver command.
//   - Rewriting the version in project files through validated text edits, go.mod
//     module rewrites and, on a major bump, a tree-wide rewrite of the module's
//     major-version import path.
//   - Committing and pushing the bump, creating a release with generated notes and
//     notifying a package index such as pkg.go.dev.
//
// Files, git, the release host and the package index are reached through the
// afero.Fs, VCS, ReleaseHost and PackageIndex abstractions, so the whole workflow
// can run against in-memory fakes. Per-project differences (which files carry the
// version, how it is written, which index to notify) live in a Profile; GoProfile
// and JavaProfile are built in.
//
// Usage Example:
//
//	orch := &relbump.Orchestrator{
//	    VCS:     repo,   // e.g. *gitvcs.Repo
//	    Host:    host,   // e.g. *github.API
//	    Index:   index,  // e.g. *pkgindex.Pkgsite
//	    Profile: relbump.GoProfile(),
//	    Fs:      afero.NewBasePathFs(afero.NewOsFs(), "."),
//	}
//	res, err := orch.Run(ctx, "minor")
//	if err != nil {
//	    log.Fatalf("release failed: %v", err)
//	}
//	log.Printf("released %s", res.NextTag)
//
// For the command line tool, see https://pkg.go.dev/github.com/bcomnes/relbump.
package relbump
