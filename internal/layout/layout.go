// Package layout names every path the pipeline reads or writes under the
// output directory. The engine depends on these names; do not change them.
package layout

import (
	"fmt"
	"path/filepath"
)

const (
	ConfigsDirName   = "configs"
	SavesDirName     = "saves"
	ConfigFileName   = "config.info"
	FinalContigsName = "final_contigs.fasta"
	BeforeRRName     = "before_rr.fasta"
	ScaffoldsName    = "scaffolds.fasta"
	SeedContigsName  = "simplified_contigs.fasta"
	EstParamsName    = "_est_params.info"
	BinReadsDirName  = ".bin_reads"
	SavesLinkName    = "saves"

	// TemplateSuffix marks config files shipped as templates.
	TemplateSuffix = ".template"
	// TemplateSet is the subdirectory of the configs root copied into every pass.
	TemplateSet = "debruijn"
)

// PassDirName returns the directory name of the pass for k.
func PassDirName(k int) string {
	return fmt.Sprintf("K%d", k)
}

// PassDir returns the directory of the pass for k.
func PassDir(outputDir string, k int) string {
	return filepath.Join(outputDir, PassDirName(k))
}

// ConfigsDir returns the materialized config tree of a pass.
func ConfigsDir(passDir string) string {
	return filepath.Join(passDir, ConfigsDirName)
}

// ConfigFile returns the main config file handed to the engine.
func ConfigFile(passDir string) string {
	return filepath.Join(passDir, ConfigsDirName, ConfigFileName)
}

// SavesDir returns the engine checkpoint directory of a pass.
func SavesDir(passDir string) string {
	return filepath.Join(passDir, SavesDirName)
}

// FinalContigs returns the terminal-output file whose presence marks a pass done.
func FinalContigs(passDir string) string {
	return filepath.Join(passDir, FinalContigsName)
}

// BeforeRR returns the pre-repeat-resolution contigs of a pass.
func BeforeRR(passDir string) string {
	return filepath.Join(passDir, BeforeRRName)
}

// Scaffolds returns the scaffolds of a pass.
func Scaffolds(passDir string) string {
	return filepath.Join(passDir, ScaffoldsName)
}

// SeedContigs returns the contigs a pass leaves for the next one.
func SeedContigs(passDir string) string {
	return filepath.Join(passDir, SeedContigsName)
}

// EstParams returns the metadata file with per-library read lengths.
func EstParams(passDir string) string {
	return filepath.Join(passDir, EstParamsName)
}

// BinReadsDir returns the transient cross-pass binary reads cache.
func BinReadsDir(outputDir string) string {
	return filepath.Join(outputDir, BinReadsDirName)
}

// TemplateRoot returns the template config set inside the configs root.
func TemplateRoot(configsRoot string) string {
	return filepath.Join(configsRoot, TemplateSet)
}
