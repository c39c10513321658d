// Package ooxml writes the two Office Open XML packages pdf2all produces
// besides spreadsheets: a text-only Word document and a picture-per-slide
// PowerPoint deck. Only the parts Office needs to open the file are emitted.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"

	"github.com/xj-bear/pdf2all/internal/domain"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// part is one file inside the zip package.
type part struct {
	name string
	data []byte
}

// escape returns s with XML special characters replaced.
func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// savePackage writes parts to path in order, creating parent directories.
// The file is written to a temporary name first so a failed save never
// leaves a truncated document behind.
func savePackage(path string, parts []part) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.IOError("create output directory", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return domain.IOError("create "+path, err)
	}

	zw := zip.NewWriter(f)
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return domain.IOError("add "+p.name, err)
		}
		if _, err := w.Write(p.data); err != nil {
			f.Close()
			os.Remove(tmp)
			return domain.IOError("write "+p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return domain.IOError("finish "+path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return domain.IOError("close "+path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return domain.IOError("save "+path, err)
	}
	return nil
}
