/**
# Copyright 2024 NVIDIA CORPORATION
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

package logger

import (
	"bytes"
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func TestToKlog(t *testing.T) {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	require.NoError(t, fs.Set("logtostderr", "false"))
	require.NoError(t, fs.Set("alsologtostderr", "false"))
	defer func() {
		_ = fs.Set("logtostderr", "true")
		klog.SetOutput(os.Stderr)
	}()

	var buf bytes.Buffer
	klog.SetOutput(&buf)

	ToKlog.Warning("unable to read ", "numa_node")
	ToKlog.Warningf("unable to get class name for device: %v", "0000:3b:00.0")
	klog.Flush()

	require.Contains(t, buf.String(), "unable to read numa_node")
	require.Contains(t, buf.String(), "unable to get class name for device: 0000:3b:00.0")
}
