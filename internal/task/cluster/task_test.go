// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cluster

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/batchtask/internal/cexec"
	"github.com/matt-FFFFFF/batchtask/internal/script"
	"github.com/matt-FFFFFF/batchtask/internal/task"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTask(t *testing.T, fake *fakeScheduler, fs afero.Fs, scripts ...string) *Task {
	t.Helper()

	tk, err := New(Config{
		Name:         "demo",
		Scripts:      scripts,
		Directory:    "/work",
		PollInterval: time.Millisecond,
		Runner:       fake.runner(),
		Fs:           fs,
	})
	require.NoError(t, err)

	return tk
}

func readLines(t *testing.T, fs afero.Fs, path string) []string {
	t.Helper()

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func countPrefix(lines []string, prefix string) int {
	n := 0

	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}

	return n
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "empty batch", cfg: Config{}, wantErr: task.ErrEmptyBatch},
		{name: "negative processes", cfg: Config{Scripts: []string{"/a"}, Processes: -1}, wantErr: task.ErrInvalidConfig},
		{name: "negative array size", cfg: Config{Scripts: []string{"/a"}, MaxArraySize: -2}, wantErr: task.ErrInvalidConfig},
		{name: "negative runtime", cfg: Config{Scripts: []string{"/a"}, Runtime: -time.Second}, wantErr: task.ErrInvalidConfig},
		{name: "bad dependency", cfg: Config{Scripts: []string{"/a"}, Dependency: []int{3, 0}}, wantErr: task.ErrInvalidConfig},
		{name: "empty script", cfg: Config{Scripts: []string{""}}, wantErr: task.ErrInvalidConfig},
		{name: "name with space", cfg: Config{Scripts: []string{"/a"}, Name: "my job"}, wantErr: task.ErrInvalidConfig},
		{name: "queue with tab", cfg: Config{Scripts: []string{"/a"}, Queue: "q\tx"}, wantErr: task.ErrInvalidConfig},
		{name: "directory with space", cfg: Config{Scripts: []string{"/a"}, Directory: "/work/my dir"}, wantErr: task.ErrInvalidConfig},
		{name: "single script with space", cfg: Config{Scripts: []string{"/work/my script.sh"}}, wantErr: task.ErrInvalidConfig},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	tk, err := New(Config{Scripts: []string{"rel.sh"}})
	require.NoError(t, err)

	cfg := tk.Config()
	assert.Equal(t, DefaultName, cfg.Name)
	assert.Equal(t, 1, cfg.Processes)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, Slurm{}, cfg.Scheduler)
	assert.True(t, filepath.IsAbs(cfg.Directory))
	assert.True(t, filepath.IsAbs(cfg.Scripts[0]))
	assert.IsType(t, &cexec.OSRunner{}, cfg.Runner)
}

func TestRun_SingleScript(t *testing.T) {
	fs := afero.NewMemMapFs()
	fake := newFakeScheduler().on("sbatch", submitted("101"))
	tk := newTestTask(t, fake, fs, "/jobs/one.sh")
	ctx := context.Background()

	require.NoError(t, tk.Run(ctx))
	assert.Equal(t, 101, tk.Pid())
	assert.Equal(t, task.StateRunning, tk.State())

	rs := tk.Runscript()
	assert.Equal(t, "/work", filepath.Dir(rs))
	assert.True(t, strings.HasPrefix(filepath.Base(rs), "slurm_"))
	assert.Equal(t, RunscriptSuffix, filepath.Ext(rs))

	assert.Equal(t, [][]string{{"sbatch", rs}}, fake.calls)
	assert.Equal(t, []string{"/work"}, fake.dirs)

	lines := readLines(t, fs, rs)
	assert.Equal(t, []string{
		script.DefaultShebang,
		"#SBATCH --export=ALL",
		"#SBATCH --job-name=demo",
		"#SBATCH -n 1",
		"#SBATCH --chdir=/work",
		"#SBATCH -o /jobs/one.log",
		"'/jobs/one.sh'",
	}, lines)
	assert.Zero(t, countPrefix(lines, "#SBATCH --array"))

	exists, err := afero.Exists(fs, jobsPathFor(rs))
	require.NoError(t, err)
	assert.False(t, exists, "no index file for a single script")
}

func TestRun_Array(t *testing.T) {
	fs := afero.NewMemMapFs()
	fake := newFakeScheduler().on("sbatch", submitted("202"))
	scripts := []string{"/jobs/c.sh", "/jobs/a.sh", "/jobs/b.py"}
	tk := newTestTask(t, fake, fs, scripts...)

	require.NoError(t, tk.Run(context.Background()))

	rs := tk.Runscript()
	lines := readLines(t, fs, rs)

	assert.Equal(t, 1, countPrefix(lines, "#SBATCH --array="))
	assert.Contains(t, lines, "#SBATCH --array=1-3%3")
	assert.Contains(t, lines, "#SBATCH -o "+script.LogPath(rs))

	jobs := jobsPathFor(rs)
	assert.Equal(t, []string{
		`script=$(awk "NR==$SLURM_ARRAY_TASK_ID" '` + jobs + `')`,
		script.LogPathShell("log", "script"),
		`"$script" > "$log" 2>&1`,
	}, lines[len(lines)-3:])

	// Line i of the index file is script i of the batch.
	assert.Equal(t, scripts, readLines(t, fs, jobs))
}

func TestRun_ArrayCap(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  string
	}{
		{name: "default is batch size", limit: 0, want: "#SBATCH --array=1-4%4"},
		{name: "explicit cap", limit: 2, want: "#SBATCH --array=1-4%2"},
		{name: "cap above batch size", limit: 10, want: "#SBATCH --array=1-4%4"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tk, err := New(Config{
				Scripts:      []string{"/a", "/b", "/c", "/d"},
				Directory:    "/work",
				MaxArraySize: tc.limit,
			})
			require.NoError(t, err)

			rs, jobs := tk.Build()
			assert.NotEmpty(t, jobs)
			assert.Contains(t, rs.Lines, tc.want)
		})
	}
}

func TestRun_DependencyAndOptions(t *testing.T) {
	nice := 10

	tk, err := New(Config{
		Scripts:    []string{"/a", "/b"},
		Directory:  "/work",
		Queue:      "short",
		Processes:  8,
		Dependency: []int{5, 6, 7},
		Runtime:    2 * time.Hour,
		Priority:   &nice,
	})
	require.NoError(t, err)

	rs, _ := tk.Build()
	assert.Equal(t, 1, countPrefix(rs.Lines, "#SBATCH --dependency="))
	assert.Contains(t, rs.Lines, "#SBATCH --dependency=afterok:5:6:7")
	assert.Contains(t, rs.Lines, "#SBATCH -p short")
	assert.Contains(t, rs.Lines, "#SBATCH -n 8")
	assert.Contains(t, rs.Lines, "#SBATCH --time=02:00:00")
	assert.Contains(t, rs.Lines, "#SBATCH --nice=10")
}

func TestRun_SubmissionFailure(t *testing.T) {
	tests := []struct {
		name   string
		sbatch func([]string) (string, error)
	}{
		{name: "non-zero exit", sbatch: failing(1, "sbatch: error: invalid partition")},
		{name: "malformed output", sbatch: func([]string) (string, error) { return "queued\n", nil }},
		{name: "empty output", sbatch: func([]string) (string, error) { return "", nil }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := newFakeScheduler().on("sbatch", tc.sbatch)
			tk := newTestTask(t, fake, afero.NewMemMapFs(), "/a", "/b")

			err := tk.Run(context.Background())
			require.ErrorIs(t, err, task.ErrSubmission)
			assert.Zero(t, tk.Pid())
			assert.Equal(t, task.StateIdle, tk.State())
		})
	}
}

func TestRun_WriteFailure(t *testing.T) {
	fake := newFakeScheduler().on("sbatch", submitted("1"))
	tk := newTestTask(t, fake, afero.NewReadOnlyFs(afero.NewMemMapFs()), "/a", "/b")

	require.ErrorIs(t, tk.Run(context.Background()), task.ErrSubmission)
	assert.Zero(t, fake.count("sbatch"), "nothing is submitted when artifacts cannot be written")
}

func TestRun_Twice(t *testing.T) {
	fake := newFakeScheduler().on("sbatch", submitted("1"))
	tk := newTestTask(t, fake, afero.NewMemMapFs(), "/a")

	require.NoError(t, tk.Run(context.Background()))
	require.ErrorIs(t, tk.Run(context.Background()), task.ErrAlreadyStarted)
	assert.Equal(t, 1, fake.count("sbatch"))
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name   string
		squeue func([]string) (string, error)
		want   task.Status
	}{
		{
			name:   "running",
			squeue: func([]string) (string, error) { return "303_1 debug demo u R 0:01 1 n1\n", nil },
			want:   task.Status{JobNumber: 303, Status: task.StatusRunning},
		},
		{
			name:   "purged job",
			squeue: failing(1, "slurm_load_jobs error: Invalid job id specified"),
			want:   task.Status{},
		},
		{
			name:   "no rows",
			squeue: func([]string) (string, error) { return "", nil },
			want:   task.Status{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := newFakeScheduler().on("sbatch", submitted("303")).on("squeue", tc.squeue)
			tk := newTestTask(t, fake, afero.NewMemMapFs(), "/a", "/b")

			require.NoError(t, tk.Run(context.Background()))
			assert.Equal(t, tc.want, tk.Info(context.Background()))
		})
	}
}

func TestInfo_NotStarted(t *testing.T) {
	fake := newFakeScheduler()
	tk := newTestTask(t, fake, afero.NewMemMapFs(), "/a")

	assert.True(t, tk.Info(context.Background()).IsEmpty())
	assert.Zero(t, fake.count("squeue"), "no query without a job id")
}

func TestWait_PollsUntilGone(t *testing.T) {
	polls := 0
	fake := newFakeScheduler().
		on("sbatch", submitted("404")).
		on("squeue", func(args []string) (string, error) {
			polls++
			if polls < 3 {
				return "404 debug demo u R 0:01 1 n1\n", nil
			}

			return "", &cexec.ExitError{Args: args, ExitCode: 1}
		})
	tk := newTestTask(t, fake, afero.NewMemMapFs(), "/a")
	ctx := context.Background()

	require.ErrorIs(t, tk.Wait(ctx), task.ErrNotStarted)
	require.NoError(t, tk.Run(ctx))
	require.NoError(t, tk.Wait(ctx))
	assert.Equal(t, task.StateFinished, tk.State())
	assert.Equal(t, 3, fake.count("squeue"))

	require.NoError(t, tk.Close(ctx))
	require.NoError(t, tk.Close(ctx))
	assert.Equal(t, 3, fake.count("squeue"), "close after finish does not poll again")
}

func TestWait_ContextDone(t *testing.T) {
	fake := newFakeScheduler().
		on("sbatch", submitted("5")).
		on("squeue", func([]string) (string, error) { return "5 debug demo u R 0:01 1 n1\n", nil })
	tk := newTestTask(t, fake, afero.NewMemMapFs(), "/a")

	require.NoError(t, tk.Run(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, tk.Wait(ctx), context.DeadlineExceeded)
	assert.Equal(t, task.StateRunning, tk.State())
}

func TestKill(t *testing.T) {
	fake := newFakeScheduler().on("sbatch", submitted("606")).on("scancel", func([]string) (string, error) { return "", nil })
	tk := newTestTask(t, fake, afero.NewMemMapFs(), "/a", "/b")
	ctx := context.Background()

	require.ErrorIs(t, tk.Kill(ctx), task.ErrNotStarted)
	require.NoError(t, tk.Run(ctx))
	require.NoError(t, tk.Kill(ctx))
	assert.Equal(t, task.StateKilled, tk.State())
	assert.Contains(t, fake.calls, []string{"scancel", "606"})

	require.NoError(t, tk.Kill(ctx))
	assert.Equal(t, 1, fake.count("scancel"), "killing a killed task is a no-op")

	require.NoError(t, tk.Close(ctx))
	require.NoError(t, tk.Close(ctx))
}

func TestKill_Failure(t *testing.T) {
	fake := newFakeScheduler().on("sbatch", submitted("707")).on("scancel", failing(1, "scancel: error: Access denied"))
	tk := newTestTask(t, fake, afero.NewMemMapFs(), "/a")
	ctx := context.Background()

	require.NoError(t, tk.Run(ctx))

	err := tk.Kill(ctx)
	require.ErrorIs(t, err, task.ErrCancellation)
	require.ErrorIs(t, err, cexec.ErrNonZeroExit)
	assert.Contains(t, err.Error(), "Access denied")
	assert.Equal(t, task.StateRunning, tk.State())
}

func TestAttach(t *testing.T) {
	fake := newFakeScheduler().
		on("squeue", func([]string) (string, error) { return "808 debug demo u R 0:01 1 n1\n", nil }).
		on("scancel", func([]string) (string, error) { return "", nil })

	_, err := Attach(Config{Runner: fake.runner()}, 0)
	require.ErrorIs(t, err, task.ErrInvalidConfig)

	tk, err := Attach(Config{Runner: fake.runner()}, 808)
	require.NoError(t, err)
	assert.Equal(t, 808, tk.Pid())
	assert.Equal(t, task.StateRunning, tk.State())
	assert.Equal(t, task.Status{JobNumber: 808, Status: task.StatusRunning}, tk.Info(context.Background()))
	require.ErrorIs(t, tk.Run(context.Background()), task.ErrAlreadyStarted)
	require.NoError(t, tk.Kill(context.Background()))
}

// TestArrayBody_ResolvesElement runs the generated runscript under /bin/sh the way one
// array element would, and checks that only that element's script runs and logs.
func TestArrayBody_ResolvesElement(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping posix shell test on windows")
	}

	dir := t.TempDir()
	fs := afero.NewOsFs()

	scripts := make([]string, 3)

	for i := range scripts {
		s := script.New(script.WithDirectory(filepath.Join(dir, "scripts")))
		s.Append("echo element " + string(rune('1'+i)))
		require.NoError(t, s.Write(fs))
		scripts[i] = s.Path()
	}

	tk, err := New(Config{Scripts: scripts, Directory: dir, Fs: fs})
	require.NoError(t, err)

	rs, err := tk.write(fs)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := &cexec.OSRunner{Env: map[string]string{"SLURM_ARRAY_TASK_ID": "2"}}
	_, err = r.Run(ctx, dir, "/bin/sh", rs.Path())
	require.NoError(t, err)

	got, err := os.ReadFile(script.LogPath(scripts[1]))
	require.NoError(t, err)
	assert.Equal(t, "element 2\n", string(got))

	for _, i := range []int{0, 2} {
		_, err := os.Stat(script.LogPath(scripts[i]))
		assert.True(t, os.IsNotExist(err), "element %d must not run", i+1)
	}
}

func TestNew_ArrayAllowsWhitespaceInScripts(t *testing.T) {
	tk, err := New(Config{Scripts: []string{"/jobs/my script.sh", "/jobs/b.sh"}})
	require.NoError(t, err)
	assert.Equal(t, "/jobs/my script.sh", tk.Config().Scripts[0])
}

func TestDirectives_ReadsSubmittedRunscript(t *testing.T) {
	fs := afero.NewMemMapFs()
	fake := newFakeScheduler().on("sbatch", submitted("101"))
	tk := newTestTask(t, fake, fs, "/jobs/one.sh")

	lines, err := tk.Directives()
	require.NoError(t, err)
	assert.Nil(t, lines, "nothing submitted yet")

	require.NoError(t, tk.Run(context.Background()))

	lines, err = tk.Directives()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"#SBATCH --export=ALL",
		"#SBATCH --job-name=demo",
		"#SBATCH -n 1",
		"#SBATCH --chdir=/work",
		"#SBATCH -o /jobs/one.log",
	}, lines)

	require.NoError(t, fs.Remove(tk.Runscript()))

	_, err = tk.Directives()
	require.ErrorIs(t, err, script.ErrScriptRead)
}
