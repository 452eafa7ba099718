package live

import "context"

// Fanout 把一次更新依次投递到多个出口（Hub、Redis、RabbitMQ）。
// 每个出口各自吞掉失败，单个出口故障不影响其它出口。
type Fanout struct {
	sinks  []Publisher
	origin string
}

func NewFanout(origin string, sinks ...Publisher) *Fanout {
	out := make([]Publisher, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Fanout{sinks: out, origin: origin}
}

func (f *Fanout) Publish(ctx context.Context, u VehicleUpdate) {
	if f == nil {
		return
	}
	u.Origin = f.origin
	for _, s := range f.sinks {
		s.Publish(ctx, u)
	}
}
