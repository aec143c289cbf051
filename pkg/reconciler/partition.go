package reconciler

import "github.com/cuemby/taskctl/pkg/model"

// buckets is the phase-5 partition of the desired-deploy service set into
// the four mutation groups model.Service.Bucket() distinguishes.
type buckets struct {
	primaryStopBefore []*model.Service
	stopBefore        []*model.Service
	primaryDeploy     []*model.Service
	remainDeploy      []*model.Service
}

func partition(services []*model.Service) buckets {
	var b buckets
	for _, s := range notErrored(services) {
		switch s.Bucket() {
		case model.BucketPrimaryStopBefore:
			b.primaryStopBefore = append(b.primaryStopBefore, s)
		case model.BucketStopBefore:
			b.stopBefore = append(b.stopBefore, s)
		case model.BucketPrimaryDeploy:
			b.primaryDeploy = append(b.primaryDeploy, s)
		default:
			b.remainDeploy = append(b.remainDeploy, s)
		}
	}
	return b
}

// stopBeforeAll returns primaryStopBefore ∪ stopBefore, primary group
// first, the order phases 7 and 9 both require.
func (b buckets) stopBeforeAll() []*model.Service {
	out := make([]*model.Service, 0, len(b.primaryStopBefore)+len(b.stopBefore))
	out = append(out, b.primaryStopBefore...)
	out = append(out, b.stopBefore...)
	return out
}
