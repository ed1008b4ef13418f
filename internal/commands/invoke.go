package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"qc-analytics/internal/database"
	"qc-analytics/internal/files"
	"qc-analytics/internal/logging"
	"qc-analytics/internal/metrics"
)

// ErrUnknownCommand is returned by Invoke for a name it does not serve.
var ErrUnknownCommand = errors.New("unknown command")

// IsClientError reports whether err was caused by the caller (bad
// arguments or an unknown command) rather than by storage or the
// filesystem.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrUnknownCommand)
}

type commandFunc func(ctx context.Context, s *Service, args json.RawMessage) (any, error)

// Argument shapes. Field names follow the desktop shell's camelCase
// convention; unknown fields such as baseDirectory are ignored.
type (
	payloadArgs[T any] struct {
		Payload *T `json:"payload"`
	}
	qcNameArgs struct {
		QCName string `json:"qcName"`
	}
	sessionIDArgs struct {
		SessionID int64 `json:"sessionId"`
	}
	settingArgs struct {
		Key   string  `json:"key"`
		Value *string `json:"value"`
	}
	directoryArgs struct {
		Directory string `json:"directory"`
	}
	filePathArgs struct {
		FilePath string `json:"filePath"`
	}
	writeArgs struct {
		FilePath string `json:"filePath"`
		Content  string `json:"content"`
	}
	dirPathArgs struct {
		DirPath string `json:"dirPath"`
	}
	copyArgs struct {
		Source      string `json:"source"`
		Destination string `json:"destination"`
	}
	organizeArgs struct {
		Directory    string   `json:"directory"`
		OutputFolder string   `json:"outputFolder"`
		RetouchFiles []string `json:"retouchFiles"`
		RetakeFiles  []string `json:"retakeFiles"`
		WrongFiles   []string `json:"wrongFiles"`
	}
)

// decode unmarshals command arguments. An empty body means no arguments.
func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(bytes.TrimSpace(raw)) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, invalid("arguments", "%v", err)
	}
	return v, nil
}

func decodePayload[T any](raw json.RawMessage) (T, error) {
	var zero T
	args, err := decode[payloadArgs[T]](raw)
	if err != nil {
		return zero, err
	}
	if args.Payload == nil {
		return zero, invalid("payload", "is required")
	}
	return *args.Payload, nil
}

// qcNameQuery adapts a per-reviewer query to a commandFunc.
func qcNameQuery[T any](fn func(*Service, context.Context, string) (T, error)) commandFunc {
	return func(ctx context.Context, s *Service, raw json.RawMessage) (any, error) {
		args, err := decode[qcNameArgs](raw)
		if err != nil {
			return nil, err
		}
		return fn(s, ctx, args.QCName)
	}
}

var commandTable = map[string]commandFunc{
	"init_database": func(ctx context.Context, s *Service, _ json.RawMessage) (any, error) {
		return nil, s.InitDatabase(ctx)
	},
	"create_session": func(ctx context.Context, s *Service, raw json.RawMessage) (any, error) {
		p, err := decodePayload[CreateSessionPayload](raw)
		if err != nil {
			return nil, err
		}
		return s.CreateSession(ctx, p)
	},
	"end_session": func(ctx context.Context, s *Service, raw json.RawMessage) (any, error) {
		args, err := decode[sessionIDArgs](raw)
		if err != nil {
			return nil, err
		}
		return nil, s.EndSession(ctx, args.SessionID)
	},
	"save_qc_record": func(ctx context.Context, s *Service, raw json.RawMessage) (any, error) {
		rec, err := decodePayload[database.QCRecordPayload](raw)
		if err != nil {
			return nil, err
		}
		return nil, s.SaveQCRecord(ctx, rec)
	},
	"get_session_history":          qcNameQuery((*Service).GetSessionHistory),
	"get_analytics_data":           qcNameQuery((*Service).GetAnalyticsData),
	"get_analytics_records":        qcNameQuery((*Service).GetAnalyticsRecords),
	"get_daily_breakdown":          qcNameQuery((*Service).GetDailyBreakdown),
	"get_next_action_distribution": qcNameQuery((*Service).GetNextActionDistribution),
	"save_app_setting": func(ctx context.Context, s *Service, raw json.RawMessage) (any, error) {
		args, err := decode[settingArgs](raw)
		if err != nil {
			return nil, err
		}
		if args.Value == nil {
			return nil, invalid("value", "is required")
		}
		return nil, s.SaveAppSetting(ctx, args.Key, *args.Value)
	},
	"load_app_settings": func(ctx context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.LoadAppSettings(ctx)
	},
	"get_database_path": func(_ context.Context, s *Service, _ json.RawMessage) (any, error) {
		return s.DatabasePath(), nil
	},
	"get_image_files": func(_ context.Context, _ *Service, raw json.RawMessage) (any, error) {
		args, err := decode[directoryArgs](raw)
		if err != nil {
			return nil, err
		}
		if err := requireNonEmpty("directory", args.Directory); err != nil {
			return nil, err
		}
		return files.GetImageFiles(args.Directory)
	},
	"read_text_file": func(_ context.Context, _ *Service, raw json.RawMessage) (any, error) {
		args, err := decode[filePathArgs](raw)
		if err != nil {
			return nil, err
		}
		if err := requireNonEmpty("filePath", args.FilePath); err != nil {
			return nil, err
		}
		return files.ReadTextFile(args.FilePath)
	},
	"write_text_file": func(_ context.Context, _ *Service, raw json.RawMessage) (any, error) {
		args, err := decode[writeArgs](raw)
		if err != nil {
			return nil, err
		}
		if err := requireNonEmpty("filePath", args.FilePath); err != nil {
			return nil, err
		}
		return nil, files.WriteTextFile(args.FilePath, args.Content)
	},
	"file_exists": func(_ context.Context, _ *Service, raw json.RawMessage) (any, error) {
		args, err := decode[filePathArgs](raw)
		if err != nil {
			return nil, err
		}
		return args.FilePath != "" && files.FileExists(args.FilePath), nil
	},
	"create_directory": func(_ context.Context, _ *Service, raw json.RawMessage) (any, error) {
		args, err := decode[dirPathArgs](raw)
		if err != nil {
			return nil, err
		}
		if err := requireNonEmpty("dirPath", args.DirPath); err != nil {
			return nil, err
		}
		return nil, files.CreateDirectory(args.DirPath)
	},
	"copy_file": func(_ context.Context, _ *Service, raw json.RawMessage) (any, error) {
		args, err := decode[copyArgs](raw)
		if err != nil {
			return nil, err
		}
		if err := requireNonEmpty("source", args.Source); err != nil {
			return nil, err
		}
		if err := requireNonEmpty("destination", args.Destination); err != nil {
			return nil, err
		}
		return nil, files.CopyFile(args.Source, args.Destination)
	},
	"get_parent_directory": func(_ context.Context, _ *Service, raw json.RawMessage) (any, error) {
		args, err := decode[filePathArgs](raw)
		if err != nil {
			return nil, err
		}
		return files.ParentDirectory(args.FilePath)
	},
	"get_filename": func(_ context.Context, _ *Service, raw json.RawMessage) (any, error) {
		args, err := decode[filePathArgs](raw)
		if err != nil {
			return nil, err
		}
		return files.FileName(args.FilePath)
	},
	"organize_files": func(ctx context.Context, s *Service, raw json.RawMessage) (any, error) {
		args, err := decode[organizeArgs](raw)
		if err != nil {
			return nil, err
		}
		return s.OrganizeFiles(ctx, files.OrganizeRequest{
			Directory:    args.Directory,
			OutputFolder: args.OutputFolder,
			RetouchFiles: args.RetouchFiles,
			RetakeFiles:  args.RetakeFiles,
			WrongFiles:   args.WrongFiles,
		})
	},
}

// Commands returns the names Invoke serves, sorted.
func Commands() []string {
	names := make([]string, 0, len(commandTable))
	for name := range commandTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named command with JSON arguments and returns its result
// ready for JSON encoding. Errors carry a human-readable message; use
// IsClientError to tell caller mistakes from failures.
func (s *Service) Invoke(ctx context.Context, name string, args json.RawMessage) (result any, err error) {
	fn, ok := commandTable[name]
	if !ok {
		metrics.CommandsTotal.WithLabelValues("unknown", "invalid").Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	start := time.Now()
	defer func() {
		status := "success"
		switch {
		case err == nil:
		case IsClientError(err):
			status = "invalid"
		default:
			status = "error"
		}
		metrics.CommandsTotal.WithLabelValues(name, status).Inc()
		metrics.CommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	logging.Debug("Invoking command %s", name)

	result, err = fn(ctx, s, args)
	if err != nil {
		if IsClientError(err) {
			logging.Debug("Command %s rejected: %v", name, err)
		} else if kind := database.Kind(err); kind != nil {
			logging.Warn("Command %s failed (%v): %v", name, kind, err)
		} else {
			logging.Warn("Command %s failed: %v", name, err)
		}
		return nil, err
	}

	return result, nil
}
