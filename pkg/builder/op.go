package builder

type Op int

const (
	Build Op = iota
	Export
	Inspect
)

func (o Op) String() string {
	return [...]string{"build", "export", "inspect"}[o]
}
