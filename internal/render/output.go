/**
# Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
#
# Licensed under the Apache License, Version 2.0 (the "License");
# you may not use this file except in compliance with the License.
# You may obtain a copy of the License at
#
#     http://www.apache.org/licenses/LICENSE-2.0
#
# Unless required by applicable law or agreed to in writing, software
# distributed under the License is distributed on an "AS IS" BASIS,
# WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
# See the License for the specific language governing permissions and
# limitations under the License.
**/

package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"
)

// Outputer defines a mechanism to output an inventory.
type Outputer interface {
	Output(Inventory) error
}

// ToFile returns an Outputer that renders to the specified file, or to
// stdout if path is empty.
func ToFile(path string, format Format, opts Options) Outputer {
	if path == "" {
		return ToWriter(os.Stdout, format, opts)
	}
	return &toFile{path: path, format: format, opts: opts}
}

// ToWriter returns an Outputer that renders to w.
func ToWriter(w io.Writer, format Format, opts Options) Outputer {
	return &toWriter{Writer: w, format: format, opts: opts}
}

// toFile writes to the specified file.
type toFile struct {
	path   string
	format Format
	opts   Options
}

// toWriter writes to the specified writer
type toWriter struct {
	io.Writer
	format Format
	opts   Options
}

func (o *toFile) Output(inv Inventory) error {
	klog.Infof("Writing inventory %v to output file %v", inv.ID(), o.path)

	buffer := new(bytes.Buffer)
	output := &toWriter{Writer: buffer, format: o.format, opts: o.opts}
	if err := output.Output(inv); err != nil {
		return fmt.Errorf("error writing inventory to buffer: %v", err)
	}
	err := writeFileAtomically(o.path, buffer.Bytes(), 0644)
	if err != nil {
		return fmt.Errorf("error atomically writing file '%s': %w", o.path, err)
	}
	return nil
}

func (o *toWriter) Output(inv Inventory) error {
	return Render(o.Writer, o.format, inv, o.opts)
}

func writeFileAtomically(path string, contents []byte, perm os.FileMode) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to retrieve absolute path of output file: %v", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(absPath), ".gpu-ls-")
	if err != nil {
		return fmt.Errorf("fail to create temporary output file: %v", err)
	}
	defer func() {
		if err != nil {
			tmpFile.Close()
			os.Remove(tmpFile.Name())
		}
	}()

	_, err = tmpFile.Write(contents)
	if err != nil {
		return fmt.Errorf("error writing temporary file '%v': %v", tmpFile.Name(), err)
	}
	err = tmpFile.Close()
	if err != nil {
		return fmt.Errorf("error closing temporary file '%v': %v", tmpFile.Name(), err)
	}

	err = os.Chmod(tmpFile.Name(), perm)
	if err != nil {
		return fmt.Errorf("error setting permissions on '%v': %v", tmpFile.Name(), err)
	}

	err = os.Rename(tmpFile.Name(), absPath)
	if err != nil {
		return fmt.Errorf("error moving temporary file to '%v': %v", path, err)
	}

	return nil
}
