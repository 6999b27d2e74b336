// automod new [--kind library|program] <name>
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/automod/internal/builder"
	"github.com/qobs-build/automod/internal/msg"
	"github.com/spf13/cobra"
)

var flagKind EnumValue = NewEnumValue("library", map[string]string{
	"library": "Module builds into a convenience library (default)",
	"program": "Module builds into an installed program",
})

// writefile creates a file unless it already exists and reports whether it did
func writefile(content string, elem ...string) (bool, error) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return false, err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("create file %s: %w", path, err)
	}
	return true, nil
}

func mkdir(elem ...string) error {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// descriptorName is the file name to create for a descriptor pattern
func descriptorName(pattern string) string {
	if strings.ContainsAny(pattern, "*?[{\\/") {
		return "module.cfg"
	}
	return pattern
}

type skeletonFile struct {
	dir, name, content string
}

// createModule writes the skeleton of a module and, for libraries, its first test suite.
// It returns the created files relative to root.
func createModule(root, name string, kind builder.ModuleKind) ([]string, error) {
	if !builder.ValidModuleName(name) {
		return nil, fmt.Errorf("%w %q: module names must be a letter followed by letters or digits", builder.ErrInvalidName, name)
	}

	cfg, err := builder.LoadConfig(root, builder.NewConfigEnv())
	if err != nil {
		return nil, err
	}

	modDir := filepath.Join(root, filepath.FromSlash(cfg.Layout.Src), name)
	if _, err := os.Stat(modDir); err == nil {
		return nil, fmt.Errorf("%s: module %w", filepath.ToSlash(modDir), os.ErrExist)
	}

	var files []skeletonFile
	if kind == builder.Program {
		files = []skeletonFile{
			{modDir, name + ".c", `int main(int argc, char **argv) {
    return 0;
}
`},
			{modDir, descriptorName(cfg.Layout.Descriptor), `[module]
program = ` + name + `
# deps =
`},
		}
	} else {
		upper := strings.ToUpper(name)
		title := strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
		testDir := filepath.Join(root, filepath.FromSlash(cfg.Layout.Tests), name)

		files = []skeletonFile{
			{modDir, name + ".c", `#include "` + name + `.h"

int ` + name + `_dosomething(int arg) {
    return arg * 3;
}
`},
			{modDir, name + ".h", `/**
 * @file ` + name + `.h
 * @brief
 */

#ifndef ` + upper + `_H_
#define ` + upper + `_H_

int ` + name + `_dosomething(int arg);

#endif
`},
			{modDir, descriptorName(cfg.Layout.Descriptor), `[module]
library = ` + name + `
# deps =
`},
			{testDir, "test_" + name + ".c", `#include "` + name + `/` + name + `.h"
#include "unity.h"

void setUp(void) {}

void tearDown(void) {}

void test_` + title + `DoSomething_Returns3x(void) {
  TEST_ASSERT_EQUAL_MESSAGE(15, ` + name + `_dosomething(5), "Returns 3x the argument");
}
`},
		}
	}

	var created []string
	for _, f := range files {
		if err := mkdir(f.dir); err != nil {
			return created, err
		}
		ok, err := writefile(f.content, f.dir, f.name)
		if err != nil {
			return created, err
		}
		if ok {
			rel, err := filepath.Rel(root, filepath.Join(f.dir, f.name))
			if err != nil {
				return created, err
			}
			created = append(created, filepath.ToSlash(rel))
		}
	}
	return created, nil
}

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create the files of a new module",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kind := builder.Library
		if flagKind.Value() == "program" {
			kind = builder.Program
		}
		created, err := createModule(flagRootDir, args[0], kind)
		for _, file := range created {
			fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), file)
		}
		if err != nil {
			msg.Fatal("%v", err)
		}
		fmt.Printf("Run %s to update the build descriptor.\n", color.HiCyanString(getProgramName()))
	},
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "automod"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

func init() {
	// automod new subcommand
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().VarP(&flagKind, "kind", "k", "Module kind, one of "+flagKind.HelpString())
	newCmd.RegisterFlagCompletionFunc("kind", flagKind.CompletionFunc())
}
