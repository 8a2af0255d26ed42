package log

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	defaultPattern    = "%time [%level] %caller: %msg%n"
	defaultTimeFormat = "2006-01-02 15:04:05"
)

type formatter struct {
	pattern string
	time    string
}

// Format supports %time, %level, %field, %msg, %caller, %func and %n.
func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	output := f.pattern
	output = strings.Replace(output, "%time", entry.Time.Format(f.time), 1)
	output = strings.Replace(output, "%level", entry.Level.String(), 1)
	output = strings.Replace(output, "%field", buildFields(entry), 1)
	output = strings.Replace(output, "%msg", entry.Message, 1)
	output = strings.Replace(output, "%caller", getCaller(entry), 1)
	output = strings.Replace(output, "%func", getFunc(entry), 1)
	output = strings.ReplaceAll(output, "%n", "\n")
	return []byte(output), nil
}

// callerFrame returns the frame of the slog call site, carried in the entry context.
func callerFrame(entry *logrus.Entry) (runtime.Frame, bool) {
	if entry.Context == nil {
		return runtime.Frame{}, false
	}
	frame, ok := entry.Context.Value(callerKey{}).(runtime.Frame)
	return frame, ok
}

// getCaller renders the call site as package/file.go:line.
func getCaller(entry *logrus.Entry) string {
	frame, ok := callerFrame(entry)
	if !ok {
		return "unknown"
	}
	// Module paths may contain dots, so cut at the last slash first.
	pkg := frame.Function
	if slashIdx := strings.LastIndex(pkg, "/"); slashIdx != -1 {
		pkg = pkg[slashIdx+1:]
	}
	if dotIdx := strings.Index(pkg, "."); dotIdx != -1 {
		pkg = pkg[:dotIdx]
	}
	return fmt.Sprintf("%s/%s:%d", pkg, filepath.Base(frame.File), frame.Line)
}

// getFunc keeps only the function or method name.
func getFunc(entry *logrus.Entry) string {
	frame, ok := callerFrame(entry)
	if !ok {
		return "unknown"
	}
	funcName := frame.Function
	if dotIdx := strings.LastIndex(funcName, "."); dotIdx != -1 && dotIdx+1 < len(funcName) {
		return funcName[dotIdx+1:]
	}
	return funcName
}

func buildFields(entry *logrus.Entry) string {
	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]string, 0, len(keys))
	for _, key := range keys {
		val := entry.Data[key]
		stringVal, ok := val.(string)
		if !ok {
			stringVal = fmt.Sprint(val)
		}
		fields = append(fields, key+"="+stringVal)
	}
	return strings.Join(fields, ",")
}
