//go:build integration

package integration

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"rendersync/internal/domain"
	"rendersync/internal/infra"
	"rendersync/internal/profile"
	"rendersync/internal/usecase"
	"rendersync/test/fixtures"
)

// quietProfile keeps the default marker layout but uses process names that
// cannot collide with anything running on the test machine.
type quietProfile struct{}

func (quietProfile) ID() string   { return "it" }
func (quietProfile) Name() string { return "Integration profile" }
func (quietProfile) MarkerPatterns() []string {
	return []string{
		"output/shorts/**/progress*.json",
		"output/long/**/progress*.json",
		"output/progress*.json",
	}
}
func (quietProfile) EngineNames() []string      { return []string{"rendersync-it-engine"} }
func (quietProfile) InterpreterNames() []string { return []string{"rendersync-it-interp"} }
func (quietProfile) ScriptPatterns() []string   { return []string{"scripts/src"} }

var _ = Describe("Activity Guard", func() {
	var (
		project *fixtures.FakeRenderProject
		guard   *usecase.Guard
	)

	BeforeEach(func() {
		project = fixtures.NewFakeRenderProject(GinkgoT().TempDir())
		Expect(project.Create()).To(Succeed())

		store := profile.NewProfileStoreWith(
			profile.NewRegistryWithProfiles(quietProfile{}))

		guard = usecase.NewGuard(
			usecase.GuardSettings{
				Root:      project.Root,
				Staleness: 300 * time.Second,
			},
			store,
			infra.NewMarkerScanner(),
			infra.NewProcessInspector(),
			zap.NewNop(),
		)
	})

	Describe("Check", func() {
		Context("with no markers and no matching processes", func() {
			It("reports idle", func() {
				decision := guard.Check(context.Background())
				Expect(decision.Busy).To(BeFalse())
			})
		})

		Context("with a fresh marker at the fallback location", func() {
			It("reports busy with the marker as evidence", func() {
				Expect(project.WriteMarker("output/progress.json", 60*time.Second)).To(Succeed())

				decision := guard.Check(context.Background())
				Expect(decision.Busy).To(BeTrue())
				Expect(decision.Reason).To(Equal(domain.ReasonFreshMarker))
				Expect(decision.Detail).To(ContainSubstring("progress.json"))
			})
		})

		Context("with only a stale marker", func() {
			It("reports idle", func() {
				Expect(project.WriteMarker("output/progress.json", 600*time.Second)).To(Succeed())

				decision := guard.Check(context.Background())
				Expect(decision.Busy).To(BeFalse())
			})
		})

		Context("with a fresh marker deep in a pipeline directory", func() {
			It("reports busy", func() {
				Expect(project.WriteMarker("output/shorts/run-7/progress-encode.json", time.Second)).To(Succeed())

				decision := guard.Check(context.Background())
				Expect(decision.Busy).To(BeTrue())
			})
		})

		Context("invoked twice with unchanged state", func() {
			It("returns the same verdict", func() {
				Expect(project.WriteMarker("output/progress.json", 60*time.Second)).To(Succeed())

				first := guard.Check(context.Background())
				second := guard.Check(context.Background())
				Expect(second.Busy).To(Equal(first.Busy))
				Expect(second.Reason).To(Equal(first.Reason))
			})
		})
	})
})
