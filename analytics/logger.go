package analytics

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Collector = new(LogFileDataCollector)

type LogFileDataCollector struct {
	fileName string
	logger   *zap.Logger
}

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = "" // to hide stacktrace info
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	core := zapcore.NewTee(zapcore.NewCore(fileEncoder, writer, zapcore.InfoLevel))
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &LogFileDataCollector{
		fileName: fileName,
		logger:   logger,
	}, nil
}

func (lc *LogFileDataCollector) RecordNodeSuccess(workflowId string, executionId string, nodeId string, kind string, durationMs int64) {
	lc.logger.Info("success", zap.String("workflow", workflowId), zap.String("execution", executionId), zap.String("node", nodeId), zap.String("kind", kind), zap.Int64("durationMs", durationMs))
}

func (lc *LogFileDataCollector) RecordNodeFailure(workflowId string, executionId string, nodeId string, kind string, reason string) {
	lc.logger.Info("failure", zap.String("workflow", workflowId), zap.String("execution", executionId), zap.String("node", nodeId), zap.String("kind", kind), zap.String("reason", reason))
}
