package toolchain

// crossTargets is the set of target triples the cross-wrapped executor
// supports. Resolution of a cross target outside this set fails with an
// unresolved-target error attributed to the requesting jobs.
var crossTargets = map[string]struct{}{
	// Tier-1 and common glibc Linux
	"x86_64-unknown-linux-gnu":          {},
	"i686-unknown-linux-gnu":            {},
	"aarch64-unknown-linux-gnu":         {},
	"armv7-unknown-linux-gnueabihf":     {},
	"arm-unknown-linux-gnueabi":         {},
	"arm-unknown-linux-gnueabihf":       {},
	"thumbv7neon-unknown-linux-gnueabihf": {},
	// MIPS
	"mips-unknown-linux-gnu":            {},
	"mipsel-unknown-linux-gnu":          {},
	"mips64-unknown-linux-gnuabi64":     {},
	"mips64el-unknown-linux-gnuabi64":   {},
	// PowerPC
	"powerpc-unknown-linux-gnu":         {},
	"powerpc64-unknown-linux-gnu":       {},
	"powerpc64le-unknown-linux-gnu":     {},
	// Other architectures
	"riscv64gc-unknown-linux-gnu":       {},
	"s390x-unknown-linux-gnu":           {},
	"sparc64-unknown-linux-gnu":         {},
	// musl
	"x86_64-unknown-linux-musl":         {},
	"i686-unknown-linux-musl":           {},
	"aarch64-unknown-linux-musl":        {},
	"arm-unknown-linux-musleabi":        {},
	"arm-unknown-linux-musleabihf":      {},
	// Windows cross
	"x86_64-pc-windows-gnu":             {},
}

// KnownCrossTarget reports whether the cross executor supports a target triple.
func KnownCrossTarget(target string) bool {
	_, ok := crossTargets[target]
	return ok
}

// CrossTargets returns the supported cross target triples, for listings.
func CrossTargets() []string {
	targets := make([]string, 0, len(crossTargets))
	for t := range crossTargets {
		targets = append(targets, t)
	}
	return targets
}
