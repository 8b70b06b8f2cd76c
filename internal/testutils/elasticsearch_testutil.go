package testutils

import (
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/goto/salt/log"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

// ESTestURLEnv points the tests at a running cluster instead of a container.
const ESTestURLEnv = "VFSEARCH_ES_TEST_URL"

// RunTestES starts a single node elasticsearch container and returns its
// base url.
func RunTestES(t *testing.T, logger log.Logger) (string, error) {
	t.Helper()

	if u, ok := os.LookupEnv(ESTestURLEnv); ok {
		return u, nil
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		return "", fmt.Errorf("new test ES: create dockertest pool: %w", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "docker.elastic.co/elasticsearch/elasticsearch",
		Tag:        "7.17.9",
		Env: []string{
			"discovery.type=single-node",
			"ES_JAVA_OPTS=-Xms512m -Xmx512m",
			"xpack.security.enabled=false",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return "", fmt.Errorf("new test ES: start resource: %w", err)
	}

	if err := resource.Expire(180); err != nil {
		return "", err
	}

	esURL := "http://" + resource.GetHostPort("9200/tcp")
	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error {
		res, err := http.Get(esURL + "/_cluster/health?wait_for_status=yellow&timeout=5s")
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return fmt.Errorf("cluster health: status %d", res.StatusCode)
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("could not connect to elasticsearch: %w", err)
	}
	logger.Debug("elasticsearch test container ready", "url", esURL)

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Fatal(err)
		}
	})

	return esURL, nil
}
