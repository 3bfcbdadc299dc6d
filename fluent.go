package mbl

import (
	"maps"
	"slices"
)

// Builder assembles a Command one piece at a time:
//
//	cmd := mbl.Cmd("/opt/arm/pelion-provisioning-util").Arg("--get-pelion-status").Build()
//
// A Builder can be reused; every Build returns an independent Command.
type Builder struct {
	cmd Command
}

// Cmd starts a Builder for the given binary. Arguments added later are quoted
// individually on the device.
func Cmd(binary string) *Builder {
	return &Builder{cmd: Command{Cmd: binary}}
}

// Arg appends one argument.
func (b *Builder) Arg(arg string) *Builder {
	b.cmd.Args = append(b.cmd.Args, arg)

	return b
}

// Args appends several arguments.
func (b *Builder) Args(args ...string) *Builder {
	b.cmd.Args = append(b.cmd.Args, args...)

	return b
}

// Env exports key=value for the command.
func (b *Builder) Env(key, value string) *Builder {
	b.cmd.Env = append(b.cmd.Env, key+"="+value)

	return b
}

// Envs exports every entry of vars, in key order.
func (b *Builder) Envs(vars map[string]string) *Builder {
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		b.Env(k, vars[k])
	}

	return b
}

// Dir runs the command from dir on the device.
func (b *Builder) Dir(dir string) *Builder {
	b.cmd.Dir = dir

	return b
}

// Build returns the Command assembled so far.
func (b *Builder) Build() *Command {
	cmd := b.cmd
	cmd.Args = slices.Clone(b.cmd.Args)
	cmd.Env = slices.Clone(b.cmd.Env)

	return &cmd
}
