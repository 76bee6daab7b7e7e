package config

type WorkerKeyStruct struct {
	ProctorEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ProctorEventsQueue: "proctor_events_queue",
}
