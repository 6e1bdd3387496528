/*
Package pathway plays authored learning modules: graphs of message, video, question and
router nodes that learners traverse one step at a time.

A module is a list of nodes whose routing lives in the nodes themselves (nextNodeId for
linear nodes, choices for routers). The Engine keeps one navigation cursor per learner
and module, persists it through the configured stores, and reports what the learner
faces after every step as a Playback.

# Usage

	eng, err := pathway.New(pathway.WithStores(memory.NewStores(module)))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	pb, err := eng.Start(ctx, "onboarding", "learner-1")
	if err != nil {
		log.Fatal(err)
	}

	for !pb.Completed {
		if pb.Router() != nil {
			pb, err = eng.Choose(ctx, "onboarding", "learner-1", 0)
		} else {
			pb, err = eng.Next(ctx, "onboarding", "learner-1")
		}
		if err != nil {
			log.Fatal(err)
		}
	}

Routers may carry conditions over module variables. By default a choice whose
conditions fail is still taken and only logged; WithStrictConditions rejects it with
domain.ErrChoiceBlocked.

The Engine also opens modules for editing (OpenEditor, SaveEditor, PublishModule) on top
of the authoring package.
*/
package pathway
