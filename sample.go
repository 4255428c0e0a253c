package fixtures

import "context"

const (
	SampleKey   = "key"
	SampleValue = "value"
)

// SampleData provides sample test data. Customize for your project.
func SampleData() map[string]string {
	return map[string]string{SampleKey: SampleValue}
}

type SampleOpt func(*Sample)

func NewSample(opts ...SampleOpt) *Sample {
	f := &Sample{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SampleWith sets key to value on top of SampleData. Later calls win.
func SampleWith(key, value string) SampleOpt {
	return func(f *Sample) {
		f.overrides = append(f.overrides, [2]string{key, value})
	}
}

// Sample hands SampleData to tests through the fixture lifecycle.
type Sample struct {
	BaseFixture
	overrides [][2]string
	data      map[string]string
}

func (f *Sample) SetUp(context.Context) error {
	f.data = SampleData()
	for _, kv := range f.overrides {
		f.data[kv[0]] = kv[1]
	}
	return nil
}

func (f *Sample) TearDown(context.Context) error {
	f.data = nil
	return nil
}

// Data returns a copy of the fixture's data. Before SetUp, it is SampleData.
func (f *Sample) Data() map[string]string {
	if f.data == nil {
		return SampleData()
	}
	out := make(map[string]string, len(f.data))
	for k, v := range f.data {
		out[k] = v
	}
	return out
}
