package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteDefaultAndLoadCram2Fastq(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "pipeline.yml")
	if err := WriteDefault(yml, DefaultCram2FastqYml); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefault(yml, DefaultCram2FastqYml); err == nil {
		t.Error("expected refusal to overwrite an existing configuration")
	}
	cfg, err := LoadCram2Fastq(yml)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.QualityThreshold != 20 || cfg.MinLength != 50 {
		t.Errorf("unexpected trimming defaults: %+v", cfg)
	}
	if cfg.DataDir != "data.dir" {
		t.Errorf("data_dir = %s, want data.dir", cfg.DataDir)
	}
	if cfg.KeepTemporary {
		t.Error("keep_temporary should default to false")
	}
}

func TestLoadMissingConfigFails(t *testing.T) {
	if _, err := LoadBamQC(filepath.Join(t.TempDir(), "pipeline.yml")); err == nil {
		t.Error("expected error for missing configuration file")
	}
}

func TestLoadBamQCOverrides(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "pipeline.yml")
	contents := "picard_memory: 12G\npicard_threads: 4\nrun_estimatelibrarycomplexity: false\n"
	if err := os.WriteFile(yml, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadBamQC(yml)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PicardMemory != "12G" || cfg.PicardThreads != 4 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.RunLibraryComplexity {
		t.Error("run_estimatelibrarycomplexity override not applied")
	}
	if cfg.ValidationStringency != "SILENT" {
		t.Errorf("default stringency = %s, want SILENT", cfg.ValidationStringency)
	}
}

func TestAnnotationsMerge(t *testing.T) {
	annDir := t.TempDir()
	upstream := "database: csvdb\nensembl_version: 98\n"
	if err := os.WriteFile(filepath.Join(annDir, "pipeline.yml"), []byte(upstream), 0644); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	yml := filepath.Join(dir, "pipeline.yml")
	if err := os.WriteFile(yml, []byte("annotations_dir: "+annDir+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadBamQC(yml)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AnnotationsDir != annDir {
		t.Errorf("annotations_dir = %s, want %s", cfg.AnnotationsDir, annDir)
	}
	if cfg.AnnotationsDatabase != filepath.Join(annDir, "csvdb") {
		t.Errorf("annotations_database = %s", cfg.AnnotationsDatabase)
	}
	want := filepath.Join(annDir, "api.dir", "geneset.gtf.gz")
	if cfg.GenesetGTF() != want {
		t.Errorf("geneset path = %s, want %s", cfg.GenesetGTF(), want)
	}
}
