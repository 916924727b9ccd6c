package logger

import (
	"fmt"
	"log"
	"os"
)

var (
	InfoLogger  *log.Logger
	ErrorLogger *log.Logger
	DebugLogger *log.Logger
)

func Init() {
	InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	DebugLogger = log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
}

// withFields appends trailing key-value pairs to the message.
func withFields(msg string, keysAndValues ...interface{}) string {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		msg += fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	return msg
}

func Info(msg string, keysAndValues ...interface{}) {
	InfoLogger.Println(withFields(msg, keysAndValues...))
}

func Infof(format string, v ...interface{}) {
	InfoLogger.Printf(format, v...)
}

func Error(msg string, keysAndValues ...interface{}) {
	ErrorLogger.Println(withFields(msg, keysAndValues...))
}

func Errorf(format string, v ...interface{}) {
	ErrorLogger.Printf(format, v...)
}

func Debug(msg string, keysAndValues ...interface{}) {
	DebugLogger.Println(withFields(msg, keysAndValues...))
}

func Debugf(format string, v ...interface{}) {
	DebugLogger.Printf(format, v...)
}

func Fatal(msg string) {
	ErrorLogger.Fatal(msg)
}

func Fatalf(format string, v ...interface{}) {
	ErrorLogger.Fatalf(format, v...)
}
