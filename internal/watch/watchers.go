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

package watch

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Files creates a Watcher for the specified files.
func Files(files ...string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		err = watcher.Add(f)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %v: %w", f, err)
		}
	}
	return watcher, nil
}

// ConfigFile creates a Watcher for the directory holding a config file.
// Editors and config map updates replace the file rather than writing it in
// place, so the directory is watched and events are matched with Changed.
func ConfigFile(path string) (*fsnotify.Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve absolute path of config file: %v", err)
	}
	return Files(filepath.Dir(absPath))
}

// Changed returns true if the event modified or replaced the file at path.
func Changed(event fsnotify.Event, path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if filepath.Clean(event.Name) != absPath {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// Signals creates a channel for the specified signals.
func Signals(sigs ...os.Signal) chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, sigs...)
	return sigChan
}
