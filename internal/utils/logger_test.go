package utils

import "testing"

func TestInitLoggerSetsGlobal(t *testing.T) {
	InitLogger()
	if Log == nil {
		t.Fatal("InitLogger did not set Log")
	}
	Log.Info("logger smoke test", Field("key", "value"))
}

func TestTestInitLogger(t *testing.T) {
	TestInitLogger()
	if Log == nil {
		t.Fatal("TestInitLogger did not set Log")
	}
}
